package dto

import "github.com/fekuna/omnipos-stock-ledger/internal/model"

type MovementInput struct {
	ProductID string
	Type      model.MovementType
	Magnitude int64
	Note      string
	ActorID   string
}
