package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"p9e.in/garage/handlers"
	"p9e.in/garage/middleware"
	"p9e.in/garage/pkg/mailer"
	"p9e.in/garage/pkg/objectstore"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(store objectstore.Store, m *mailer.Mailer) http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/profile", handlers.Profile).Methods("GET")
	api.HandleFunc("/profile/password", handlers.ChangePassword).Methods("PUT")

	registerSessionRoutes(api, store)
	registerBillingRoutes(api)
	registerWorkshopRoutes(api)
	registerAdminRoutes(api, m)

	return r
}

// registerSessionRoutes covers the service visit lifecycle: sessions and their
// sub-records, reports and media.
func registerSessionRoutes(api *mux.Router, store objectstore.Store) {
	sessions := handlers.NewSessionHandler()
	jobCards := handlers.NewJobCardHandler()
	reports := handlers.NewReportEngine()
	media := handlers.NewMediaHandler(store)

	api.HandleFunc("/sessions", sessions.CreateSession).Methods("POST")
	api.HandleFunc("/sessions", sessions.ListSessions).Methods("GET")
	api.HandleFunc("/sessions/search", sessions.SearchSessions).Methods("GET")
	api.HandleFunc("/sessions/export", handlers.ExportSessionsToExcel).Methods("GET")
	api.HandleFunc("/sessions/number/{number}", sessions.GetSessionByNumber).Methods("GET")
	api.HandleFunc("/sessions/{id}", sessions.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/status", sessions.UpdateSessionStatus).Methods("PUT")

	api.HandleFunc("/sessions/{id}/request", sessions.CreateCustomerRequest).Methods("POST")
	api.HandleFunc("/sessions/{id}/inspection", sessions.CreateInspection).Methods("POST")
	api.HandleFunc("/sessions/{id}/test-drive", sessions.CreateTestDrive).Methods("POST")
	api.HandleFunc("/sessions/{id}/test-drive/complete", sessions.CompleteTestDrive).Methods("PUT")

	api.HandleFunc("/sessions/{id}/job-card", jobCards.CreateJobCard).Methods("POST")
	api.HandleFunc("/sessions/{id}/job-card", jobCards.GetJobCard).Methods("GET")
	api.HandleFunc("/job-cards/{id}/status", jobCards.UpdateJobCardStatus).Methods("PUT")
	api.HandleFunc("/job-cards/{id}/items", jobCards.AddJobCardItem).Methods("POST")
	api.HandleFunc("/job-cards/{id}/items/{itemId}", jobCards.UpdateJobCardItem).Methods("PUT")

	api.HandleFunc("/sessions/{id}/reports/initial", reports.GetInitialReport).Methods("GET")
	api.HandleFunc("/sessions/{id}/reports/final", reports.GetFinalReport).Methods("GET")

	api.HandleFunc("/sessions/{id}/media/upload-url", media.CreateUploadURL).Methods("POST")
	api.HandleFunc("/sessions/{id}/media", media.ListSessionMedia).Methods("GET")
	api.HandleFunc("/sessions/{id}/media", media.DeleteSessionMedia).Methods("DELETE")
	api.HandleFunc("/media/{id}/confirm", media.ConfirmUpload).Methods("PUT")
	api.HandleFunc("/media/{id}/link", media.LinkMedia).Methods("PUT")
	api.HandleFunc("/media/{id}/link", media.UnlinkMedia).Methods("DELETE")
	api.HandleFunc("/media/{id}/download-url", media.GetDownloadURL).Methods("GET")
	api.HandleFunc("/media/{id}", media.DeleteMedia).Methods("DELETE")
}

// registerBillingRoutes covers invoices and payments.
func registerBillingRoutes(api *mux.Router) {
	invoices := handlers.NewInvoiceHandler()

	api.HandleFunc("/sessions/{id}/invoice", invoices.CreateInvoice).Methods("POST")
	api.HandleFunc("/invoices", invoices.ListInvoices).Methods("GET")
	api.HandleFunc("/invoices/{id}", invoices.GetInvoice).Methods("GET")
	api.HandleFunc("/invoices/{id}/items", invoices.AddInvoiceItem).Methods("POST")
	api.HandleFunc("/invoices/{id}/payments", invoices.AddPayment).Methods("POST")
	api.HandleFunc("/invoices/{id}/status", invoices.UpdateInvoiceStatus).Methods("PUT")
	api.HandleFunc("/invoices/{id}/recalculate", invoices.RecalculateInvoice).Methods("POST")
}

// registerWorkshopRoutes covers clients, vehicles, appointments and inventory.
func registerWorkshopRoutes(api *mux.Router) {
	clients := handlers.NewClientHandler()
	appointments := handlers.NewAppointmentHandler()
	inventory := handlers.NewInventoryHandler()

	api.HandleFunc("/clients", clients.CreateClient).Methods("POST")
	api.HandleFunc("/clients", clients.ListClients).Methods("GET")
	api.HandleFunc("/clients/{id}", clients.GetClient).Methods("GET")
	api.HandleFunc("/clients/{id}", clients.UpdateClient).Methods("PUT")
	api.HandleFunc("/clients/{id}/vehicles", clients.AddVehicle).Methods("POST")
	api.HandleFunc("/vehicles/{vehicleId}", clients.UpdateVehicle).Methods("PUT")
	api.HandleFunc("/vehicles/{vehicleId}/history", clients.GetVehicleHistory).Methods("GET")

	api.HandleFunc("/appointments", appointments.CreateAppointment).Methods("POST")
	api.HandleFunc("/appointments", appointments.ListAppointments).Methods("GET")
	api.HandleFunc("/appointments/{id}", appointments.GetAppointment).Methods("GET")
	api.HandleFunc("/appointments/{id}/status", appointments.UpdateAppointmentStatus).Methods("PUT")
	api.HandleFunc("/appointments/{id}/convert", appointments.ConvertAppointment).Methods("POST")

	api.HandleFunc("/inventory", inventory.CreateItem).Methods("POST")
	api.HandleFunc("/inventory", inventory.ListItems).Methods("GET")
	api.HandleFunc("/inventory/{id}", inventory.GetItem).Methods("GET")
	api.HandleFunc("/inventory/{id}", inventory.UpdateItem).Methods("PUT")
	api.HandleFunc("/inventory/{id}/movements", inventory.RecordMovement).Methods("POST")
	api.HandleFunc("/inventory/{id}/movements", inventory.ListMovements).Methods("GET")
}

// registerAdminRoutes covers tenant administration; all require the admin role.
func registerAdminRoutes(api *mux.Router, m *mailer.Mailer) {
	company := handlers.NewCompanyHandler(m)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole("admin"))

	admin.HandleFunc("/company", company.GetCompany).Methods("GET")
	admin.HandleFunc("/company", company.UpdateCompany).Methods("PUT")
	admin.HandleFunc("/branches", company.CreateBranch).Methods("POST")
	admin.HandleFunc("/branches", company.ListBranches).Methods("GET")
	admin.HandleFunc("/users", company.InviteUser).Methods("POST")
	admin.HandleFunc("/users", company.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/deactivate", company.DeactivateUser).Methods("PUT")
	admin.HandleFunc("/email/test", company.SendTestEmail).Methods("POST")
}
