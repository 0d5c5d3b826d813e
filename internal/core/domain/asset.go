package domain

import (
	"fmt"
	"strings"
)

type Asset int

const (
	AssetNative Asset = iota
	AssetStable
)

var Assets = []Asset{AssetNative, AssetStable}

// Scale is the number of fractional digits kept for amounts of the asset.
// It's a product choice, finer than what the ledger itself allows.
func (a Asset) Scale() int32 {
	switch a {
	case AssetStable:
		return 3
	default:
		return 5
	}
}

func (a Asset) String() string {
	switch a {
	case AssetNative:
		return "SOL"
	case AssetStable:
		return "USDC"
	default:
		return fmt.Sprintf("asset(%d)", int(a))
	}
}

func (a Asset) IsValid() bool {
	return a == AssetNative || a == AssetStable
}

// ParseAsset accepts the display symbol or the generic names.
func ParseAsset(s string) (Asset, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SOL", "NATIVE":
		return AssetNative, nil
	case "USDC", "STABLE":
		return AssetStable, nil
	default:
		return 0, fmt.Errorf("unknown asset %q", s)
	}
}
