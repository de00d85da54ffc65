package models

// SequenceCounterModel is one named monotonically increasing counter
type SequenceCounterModel struct {
	Name  string `gorm:"type:varchar(50);primaryKey"`
	Value int64  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}

// All lists every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&CategoryModel{},
		&ProductModel{},
		&UserModel{},
		&SaleModel{},
		&SaleItemModel{},
		&PurchaseModel{},
		&PurchaseItemModel{},
		&BusinessModel{},
		&SequenceCounterModel{},
	}
}
