package ports

import "github.com/ArkLabsHQ/paylink/internal/core/domain"

type RepoManager interface {
	Payments() domain.PaymentRepository
	Claims() domain.ClaimRepository
	Close()
}
