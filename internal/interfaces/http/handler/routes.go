package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/interfaces/http/middleware"
	"github.com/retail/backoffice/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// Handlers groups every protected handler of the API
type Handlers struct {
	Sales    *SalesHandler
	Purchase *PurchaseHandler
	Debt     *DebtHandler
	Treasury *TreasuryHandler
	Stock    *StockHandler
	Ledger   *LedgerHandler
	Partner  *PartnerHandler
	Count    *CountHandler
	User     *UserHandler
}

var (
	selling      = []identity.Role{identity.RoleAdmin, identity.RoleManager, identity.RoleCashier}
	storekeeping = []identity.Role{identity.RoleAdmin, identity.RoleManager, identity.RoleStorekeeper}
	managing     = identity.PrivilegedRoles
	adminOnly    = []identity.Role{identity.RoleAdmin}
)

// DomainGroups builds the protected route groups. Every authenticated role
// may read; writes are gated by role here and checked again by the services.
func (hs Handlers) DomainGroups(log *zap.Logger) []*router.DomainGroup {
	with := func(roles []identity.Role, h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{middleware.RequireRoles(log, roles...), h}
	}

	sales := router.NewDomainGroup("sales", "/sales")
	sales.POST("", with(selling, hs.Sales.RecordSale)...)
	sales.GET("/invoices", hs.Sales.ListInvoices)
	sales.GET("/invoices/:id", hs.Sales.GetInvoice)
	sales.POST("/invoices/:id/reverse", with(managing, hs.Sales.ReverseSale)...)
	sales.POST("/invoices/:id/payments", with(selling, hs.Sales.RecordPayment)...)
	sales.POST("/returns", with(selling, hs.Sales.ProcessReturn)...)
	sales.GET("/returns/:id", hs.Sales.GetReturn)

	purchases := router.NewDomainGroup("purchases", "/purchases")
	purchases.POST("", with(storekeeping, hs.Purchase.Create)...)
	purchases.GET("", hs.Purchase.List)
	purchases.GET("/:id", hs.Purchase.GetByID)
	purchases.POST("/:id/cancel", with(storekeeping, hs.Purchase.Cancel)...)
	purchases.POST("/:id/receive", with(storekeeping, hs.Purchase.Receive)...)
	purchases.POST("/:id/payments", with(managing, hs.Purchase.RecordPayment)...)

	debts := router.NewDomainGroup("debts", "/debts")
	debts.POST("", with(managing, hs.Debt.Create)...)
	debts.GET("", hs.Debt.List)
	debts.GET("/overview", hs.Debt.Overview)
	debts.POST("/settle", with(selling, hs.Debt.Settle)...)
	debts.POST("/sync", with(managing, hs.Debt.Sync)...)
	debts.GET("/:id", hs.Debt.GetByID)
	debts.POST("/:id/installments", with(managing, hs.Debt.CreateInstallments)...)
	debts.POST("/:id/payments", with(selling, hs.Debt.RecordPayment)...)
	debts.POST("/:id/write-off", with(managing, hs.Debt.WriteOff)...)

	treasury := router.NewDomainGroup("treasury", "/treasury")
	treasury.GET("/balance", hs.Treasury.GetBalance)
	treasury.POST("/income", with(selling, hs.Treasury.AddIncome)...)
	treasury.POST("/expenses", with(selling, hs.Treasury.AddExpense)...)
	treasury.GET("/cashbox", hs.Treasury.GetCashbox)
	treasury.POST("/cashbox/reconcile", with(selling, hs.Treasury.Reconcile)...)
	treasury.GET("/cashboxes", hs.Treasury.ListCashboxes)
	treasury.GET("/transactions", hs.Treasury.ListTransactions)
	treasury.GET("/transactions/:id", hs.Treasury.GetTransaction)
	treasury.POST("/transactions/:id/undo", with(managing, hs.Treasury.UndoTransaction)...)

	products := router.NewDomainGroup("products", "/products")
	products.POST("", with(storekeeping, hs.Stock.CreateProduct)...)
	products.POST("/import", with(storekeeping, hs.Stock.ImportProducts)...)
	products.GET("", hs.Stock.ListProducts)
	products.GET("/low-stock", hs.Stock.LowStock)
	products.GET("/:id", hs.Stock.GetProduct)
	products.POST("/:id/archive", with(storekeeping, hs.Stock.ArchiveProduct)...)
	products.POST("/:id/initial-balance", with(storekeeping, hs.Stock.RegisterInitialBalance)...)

	stock := router.NewDomainGroup("stock", "/stock")
	stock.POST("/availability", hs.Stock.CheckAvailability)
	stock.POST("/movements", with(storekeeping, hs.Stock.MoveStock)...)
	stock.POST("/movements/bulk", with(storekeeping, hs.Stock.BulkMoveStock)...)
	stock.GET("/movements", hs.Stock.ListMovements)

	ledger := router.NewDomainGroup("ledger", "/ledger")
	ledger.POST("/entries", with(managing, hs.Ledger.CreateEntry)...)
	ledger.GET("/entries", hs.Ledger.ListEntries)
	ledger.GET("/accounts/:account", hs.Ledger.GetAccountLedger)
	ledger.GET("/trial-balance", hs.Ledger.GetTrialBalance)

	customers := router.NewDomainGroup("customers", "/customers")
	customers.POST("", with(selling, hs.Partner.CreateCustomer)...)
	customers.GET("", hs.Partner.ListCustomers)
	customers.GET("/:id", hs.Partner.GetCustomer)
	customers.PUT("/:id/credit-limit", with(managing, hs.Partner.SetCreditLimit)...)
	customers.POST("/:id/archive", with(managing, hs.Partner.ArchiveCustomer)...)

	suppliers := router.NewDomainGroup("suppliers", "/suppliers")
	suppliers.POST("", with(storekeeping, hs.Partner.CreateSupplier)...)
	suppliers.GET("", hs.Partner.ListSuppliers)
	suppliers.GET("/:id", hs.Partner.GetSupplier)
	suppliers.POST("/:id/archive", with(managing, hs.Partner.ArchiveSupplier)...)

	counts := router.NewDomainGroup("inventory-counts", "/inventory-counts")
	counts.POST("", with(storekeeping, hs.Count.Create)...)
	counts.GET("", hs.Count.List)
	counts.GET("/:id", hs.Count.GetByID)
	counts.PUT("/:id/items", with(storekeeping, hs.Count.UpdateItems)...)
	counts.POST("/:id/complete", with(storekeeping, hs.Count.Complete)...)
	counts.POST("/:id/unlock", with(managing, hs.Count.Unlock)...)
	counts.GET("/:id/movements", hs.Count.RecentMovements)

	users := router.NewDomainGroup("users", "/users")
	users.GET("/me", hs.User.Me)
	users.POST("", with(adminOnly, hs.User.Create)...)
	users.GET("/:id", with(adminOnly, hs.User.GetByID)...)
	users.PUT("/:id/role", with(adminOnly, hs.User.ChangeRole)...)
	users.POST("/:id/deactivate", with(adminOnly, hs.User.Deactivate)...)

	return []*router.DomainGroup{
		sales, purchases, debts, treasury, products, stock, ledger, customers, suppliers, counts, users,
	}
}

// SystemGroup builds the unauthenticated system routes
func SystemGroup(h *SystemHandler) *router.DomainGroup {
	system := router.NewDomainGroup("system", "/system")
	system.GET("/info", h.GetSystemInfo)
	system.GET("/health", h.Health)
	return system
}
