package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

const seqOrderNumber = "order_number"

// NextOrderNumberTx: sayacı DB tarafında artırır ve yeni değeri okur.
// UPDATE satır kilidi eşzamanlı completion'ları sıraya dizer; uygulama
// tarafında read-then-increment yoktur. Satır yoksa base'den tohumlanır.
func NextOrderNumberTx(ctx context.Context, tx *gorm.DB, base int64) (int64, error) {
	res := tx.WithContext(ctx).Model(&Sequence{}).
		Where("name = ?", seqOrderNumber).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		seq := Sequence{Name: seqOrderNumber, Value: base + 1}
		if err := tx.WithContext(ctx).Create(&seq).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// başka bir tx tohumladı; tekrar artır
				res = tx.WithContext(ctx).Model(&Sequence{}).
					Where("name = ?", seqOrderNumber).
					Update("value", gorm.Expr("value + 1"))
				if res.Error != nil {
					return 0, res.Error
				}
			} else {
				return 0, err
			}
		} else {
			return seq.Value, nil
		}
	}

	var seq Sequence
	if err := tx.WithContext(ctx).First(&seq, "name = ?", seqOrderNumber).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}
