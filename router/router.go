package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-ordering/controllers"
	"github.com/yeremiapane/cafe-ordering/kds"
	"github.com/yeremiapane/cafe-ordering/middlewares"
	"github.com/yeremiapane/cafe-ordering/services"
	"gorm.io/gorm"
)

type Options struct {
	DB             *gorm.DB
	Orders         *services.OrderService
	Menu           *services.MenuService
	Hub            *kds.Hub
	QR             services.QRGenerator
	OwnerSecret    []byte
	CORSOrigins    []string
	RateLimiter    *middlewares.RateLimiter
	CurrencySymbol string
	TrustedProxies []string
}

func SetupRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies(opts.TrustedProxies)

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(opts.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware())

	cafeCtrl := controllers.NewCafeController(opts.DB, opts.Menu)
	tableCtrl := controllers.NewTableController(opts.DB, opts.QR)
	categoryCtrl := controllers.NewMenuCategoryController(opts.DB, opts.Menu)
	menuCtrl := controllers.NewMenuController(opts.DB, opts.Menu)
	orderCtrl := controllers.NewOrderController(opts.Orders)
	billCtrl := controllers.NewBillController(opts.Orders, opts.CurrencySymbol)
	kdsCtrl := controllers.NewKDSController(opts.Hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.GET("/cafe_info/:slug/", cafeCtrl.CafeInfo)
	r.GET("/cafe_menu/:slug/", cafeCtrl.MenuPage)
	r.GET("/cafe_menu/:slug/special/", cafeCtrl.SpecialItems)
	r.GET("/cafe_menu/:slug/categories/", cafeCtrl.Categories)

	r.GET("/tables/scan/:qr_token/", tableCtrl.ScanTable)
	r.GET("/orders/active/:qr_token/", orderCtrl.ActiveOrders)
	r.DELETE("/orders/cancel/:public_id/", orderCtrl.CancelOrder)
	r.GET("/bill/:public_id/", billCtrl.GetBill)
	r.GET("/bill/:public_id/pdf/", billCtrl.GetBillPDF)

	// Rate limiter only guards customer writes
	create := r.Group("/orders")
	if opts.RateLimiter != nil {
		create.Use(opts.RateLimiter.RateLimit())
	}
	create.POST("/create/", orderCtrl.CreateOrder)

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/")
	staff.Use(middlewares.OwnerAuthMiddleware(opts.OwnerSecret))

	// ORDERS
	staff.GET("/orders/", orderCtrl.ListOrders)
	staff.GET("/orders/stats/", orderCtrl.CafeStats)
	staff.GET("/orders/:id/", orderCtrl.GetOrderByID)
	staff.PUT("/orders/update/:id/", orderCtrl.UpdateOrder)
	staff.PATCH("/orders/update/:id/", orderCtrl.UpdateOrder)
	staff.DELETE("/orders/delete/:id/", orderCtrl.DeleteOrder)

	// CAFES
	staff.GET("/cafes/", cafeCtrl.GetAllCafes)
	staff.POST("/cafes/", cafeCtrl.CreateCafe)
	staff.GET("/cafes/:id/", cafeCtrl.GetCafe)
	staff.PUT("/cafes/:id/", cafeCtrl.UpdateCafe)
	staff.PATCH("/cafes/:id/", cafeCtrl.UpdateCafe)
	staff.DELETE("/cafes/:id/", cafeCtrl.DeleteCafe)

	// TABLES
	staff.GET("/tables/", tableCtrl.GetAllTables)
	staff.POST("/tables/", tableCtrl.CreateTable)
	staff.GET("/tables/:id/", tableCtrl.GetTable)
	staff.PUT("/tables/:id/", tableCtrl.UpdateTable)
	staff.PATCH("/tables/:id/", tableCtrl.UpdateTable)
	staff.DELETE("/tables/:id/", tableCtrl.DeleteTable)
	staff.GET("/tables/:id/qr/", tableCtrl.TableQRCode)

	// MENU CATEGORIES
	staff.GET("/categories/", categoryCtrl.GetAllCategories)
	staff.POST("/categories/", categoryCtrl.CreateCategory)
	staff.PUT("/categories/:id/", categoryCtrl.UpdateCategory)
	staff.PATCH("/categories/:id/", categoryCtrl.UpdateCategory)
	staff.DELETE("/categories/:id/", categoryCtrl.DeleteCategory)

	// MENU ITEMS
	staff.GET("/menu_items/", menuCtrl.GetAllMenus)
	staff.POST("/menu_items/", menuCtrl.CreateMenu)
	staff.GET("/menu_items/:id/", menuCtrl.GetMenuByID)
	staff.PUT("/menu_items/:id/", menuCtrl.UpdateMenu)
	staff.PATCH("/menu_items/:id/", menuCtrl.UpdateMenu)
	staff.DELETE("/menu_items/:id/", menuCtrl.DeleteMenu)
	staff.POST("/menu_items/:id/restore/", menuCtrl.RestoreMenu)
	staff.GET("/menu_items/stats/", menuCtrl.MenuStats)

	// KDS websocket, token may come from the query string
	staff.GET("/kds/ws", middlewares.RequireWebSocketUpgrade(), kdsCtrl.KDSHandler)

	return r
}
