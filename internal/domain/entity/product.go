package entity

// Product es la vista de catálogo que necesita el ledger. El catálogo lo administra otro módulo.
type Product struct {
	ID                string
	CompanyID         string
	SKU               string
	Name              string
	MinStockThreshold int64 // 0 = sin alerta
}
