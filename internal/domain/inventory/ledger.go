package inventory

import (
	"fmt"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

// ApplyMovement calcula el stock resultante de aplicar un movimiento.
// Rechaza cantidades no positivas, tipos desconocidos y salidas que dejarían stock negativo.
func ApplyMovement(previous int64, movementType string, quantity int64) (int64, error) {
	if quantity <= 0 {
		return 0, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	switch movementType {
	case entity.MovementTypeIn:
		return previous + quantity, nil
	case entity.MovementTypeOut:
		if previous < quantity {
			return 0, fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, previous, quantity)
		}
		return previous - quantity, nil
	default:
		return 0, domain.NewValidationError("type", "debe ser in u out")
	}
}

// NewMovement aplica el movimiento sobre el producto y devuelve la entrada del libro.
// El producto queda con el nuevo stock; persistir ambos es responsabilidad del llamador.
func NewMovement(p *entity.Product, movementType string, quantity int64) (*entity.StockMovement, error) {
	next, err := ApplyMovement(p.StockQuantity, movementType, quantity)
	if err != nil {
		return nil, err
	}
	m := &entity.StockMovement{
		ProductID:     p.ID,
		Type:          movementType,
		Quantity:      quantity,
		PreviousStock: p.StockQuantity,
		NewStock:      next,
	}
	p.StockQuantity = next
	return m, nil
}

// ReplayResult resultado de reconstruir el stock de un producto desde su libro.
type ReplayResult struct {
	Movements   int
	FinalStock  int64
	BrokenChain []string // IDs de movimientos cuyo PreviousStock no continúa la cadena
}

// Consistent indica si la cadena está íntegra y termina en expected.
func (r ReplayResult) Consistent(expected int64) bool {
	return len(r.BrokenChain) == 0 && r.FinalStock == expected
}

// Replay pliega los movimientos (ya ordenados por fecha) partiendo de initial.
// Un movimiento inválido detiene el proceso con error.
func Replay(initial int64, movements []*entity.StockMovement) (ReplayResult, error) {
	res := ReplayResult{FinalStock: initial}
	for _, m := range movements {
		if m.PreviousStock != res.FinalStock {
			res.BrokenChain = append(res.BrokenChain, m.ID)
		}
		next, err := ApplyMovement(res.FinalStock, m.Type, m.Quantity)
		if err != nil {
			return res, fmt.Errorf("movimiento %s: %w", m.ID, err)
		}
		res.FinalStock = next
		res.Movements++
	}
	return res, nil
}
