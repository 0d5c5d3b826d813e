package solanapay

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const Scheme = "solana"

var (
	ErrInvalidScheme    = errors.New("invalid scheme")
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidSplToken  = errors.New("invalid spl-token")
	ErrInvalidReference = errors.New("invalid reference")
)

// TransferRequest is a non-interactive Solana Pay transfer request.
// An empty SplToken denotes a native SOL transfer.
type TransferRequest struct {
	Recipient  solana.PublicKey
	Amount     *decimal.Decimal
	SplToken   *solana.PublicKey
	References []solana.PublicKey
	Label      string
	Message    string
	Memo       string
}

func (r TransferRequest) URL() string {
	q := make([]string, 0, 6+len(r.References))
	if r.Amount != nil {
		q = append(q, "amount="+r.Amount.String())
	}
	if r.SplToken != nil {
		q = append(q, "spl-token="+r.SplToken.String())
	}
	for _, ref := range r.References {
		q = append(q, "reference="+ref.String())
	}
	if r.Label != "" {
		q = append(q, "label="+escape(r.Label))
	}
	if r.Message != "" {
		q = append(q, "message="+escape(r.Message))
	}
	if r.Memo != "" {
		q = append(q, "memo="+escape(r.Memo))
	}

	u := Scheme + ":" + r.Recipient.String()
	if len(q) > 0 {
		u += "?" + strings.Join(q, "&")
	}
	return u
}

// escape percent-encodes a parameter value. Spaces become %20, never '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (r TransferRequest) String() string {
	return r.URL()
}

// Parse decodes a transfer request URL. Parameters are order independent.
func Parse(rawURL string) (*TransferRequest, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}
	if u.Scheme != Scheme {
		return nil, ErrInvalidScheme
	}

	recipient, err := solana.PublicKeyFromBase58(u.Opaque)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecipient, err)
	}

	q := u.Query()
	req := &TransferRequest{
		Recipient: recipient,
		Label:     q.Get("label"),
		Message:   q.Get("message"),
		Memo:      q.Get("memo"),
	}

	if v := q.Get("amount"); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil || amount.IsNegative() {
			return nil, ErrInvalidAmount
		}
		req.Amount = &amount
	}

	if v := q.Get("spl-token"); v != "" {
		mint, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSplToken, err)
		}
		req.SplToken = &mint
	}

	for _, v := range q["reference"] {
		ref, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidReference, err)
		}
		req.References = append(req.References, ref)
	}

	return req, nil
}
