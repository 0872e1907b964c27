package handlers

import (
	"github.com/gartstein/vcpms/internal/portfolio/auth"
	"github.com/gartstein/vcpms/internal/portfolio/controller"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	loginPath       = "/"
	logoutPath      = "/logout"
	dashboardPath   = "/dashboard/"
	individualsPath = "/individual_page/"
	programmesPath  = "/programme_page/"
	archivePath     = "/archive_page/"
	settingsPath    = "/account_settings/"
	usersPath       = "/permissions/users/"
	groupsPath      = "/permissions/group_list/"
)

// Services are the business services the HTTP surface drives.
type Services struct {
	Companies   *controller.CompanyService
	Individuals *controller.IndividualService
	Founders    *controller.FounderService
	Investments *controller.InvestmentService
	Documents   *controller.DocumentService
	Programmes  *controller.ProgrammeService
	Accounts    *controller.AccountService
	Admin       *controller.AdminService
	Dashboard   *controller.DashboardService
}

// Handler binds HTTP requests to the services and renders their results.
type Handler struct {
	svc    Services
	auth   *auth.Middleware
	logger *zap.Logger
}

func NewHandler(svc Services, mw *auth.Middleware, logger *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		auth:   mw,
		logger: logger.Named("http_handler"),
	}
}

// Register mounts every route on app.
func (h *Handler) Register(app fiber.Router) {
	app.Get(loginPath, h.LoginPage)
	app.Post(loginPath, h.Login)
	app.Get(logoutPath, h.Logout)

	r := app.Group("", h.auth.RequireLogin())

	r.Get(dashboardPath, h.Dashboard)
	r.Get("/search_result", h.SearchCompanies)
	r.Post("/search_result", h.SearchCompanies)
	r.Get("/change_company_filter/", h.ChangeCompanyFilter)
	r.Get("/change_company_layout/", h.ChangeCompanyLayout)

	r.Get("/portfolio_company/company_create/", h.CreateCompanyPage)
	r.Post("/portfolio_company/company_create/", h.CreateCompany)
	r.Get("/portfolio_company/company_update/:id", h.UpdateCompanyPage)
	r.Post("/portfolio_company/company_update/:id", h.UpdateCompany)
	r.All("/portfolio_company/company_delete/:id", h.DeleteCompany)
	r.All("/portfolio_company/archive/:id", h.ArchiveCompany)
	r.All("/portfolio_company/unarchive/:id", h.UnarchiveCompany)
	r.Post("/portfolio_company/:id/upload_document/", h.UploadCompanyDocument)
	r.Get("/portfolio_company/registration/:number", h.CompanyByRegistration)
	r.Get("/portfolio_company/:id", h.CompanyPage)

	r.Get(individualsPath, h.IndividualDashboard)
	r.Get("/individual_page/individual_create/", h.CreateIndividualPage)
	r.Post("/individual_page/individual_create/", h.CreateIndividual)
	r.Get("/individual_page/founder_create/", h.CreateFounderPage)
	r.Post("/individual_page/founder_create/", h.CreateFounder)
	r.Get("/individual_page/investor_individual_create/", h.CreateIndividualInvestorPage)
	r.Post("/individual_page/investor_individual_create/", h.CreateIndividualInvestor)
	r.All("/individual_page/archive/:id", h.ArchiveIndividual)
	r.All("/individual_page/unarchive/:id", h.UnarchiveIndividual)
	r.Get("/individual_page/:id/update/", h.UpdateIndividualPage)
	r.Post("/individual_page/:id/update/", h.UpdateIndividual)
	r.Get("/individual_page/:id/delete/", h.DeleteIndividualPage)
	r.Post("/individual_page/:id/delete/", h.DeleteIndividual)
	r.Get("/individual_page/:id/modifyFounder/", h.UpdateFounderPage)
	r.Post("/individual_page/:id/modifyFounder/", h.UpdateFounder)
	r.Get("/individual_page/:id/deleteFounder/", h.DeleteFounderPage)
	r.Post("/individual_page/:id/deleteFounder/", h.DeleteFounder)
	r.Get("/individual_page/:id/investor_individual_modify/", h.UpdateIndividualInvestorPage)
	r.Post("/individual_page/:id/investor_individual_modify/", h.UpdateIndividualInvestor)
	r.Get("/individual_profile_page/:id/", h.IndividualPage)
	r.Post("/individual_profile_page/:id/upload_document/", h.UploadIndividualDocument)
	r.Get("/change_individual_filter/", h.ChangeIndividualFilter)
	r.Get("/change_individual_layout/", h.ChangeIndividualLayout)
	r.Get("/individual_search_result", h.SearchIndividuals)
	r.Post("/individual_search_result", h.SearchIndividuals)

	r.Get("/investment/create_investor_company/", h.CreateCompanyInvestorPage)
	r.Post("/investment/create_investor_company/", h.CreateCompanyInvestor)
	r.Get("/investment/update_investor_company/:id", h.UpdateCompanyInvestorPage)
	r.Post("/investment/update_investor_company/:id", h.UpdateCompanyInvestor)
	r.Get("/investment/create_portfolio_company/", h.CreatePortfolioCompanyPage)
	r.Post("/investment/create_portfolio_company/", h.CreatePortfolioCompany)
	r.Get("/investment/update_portfolio_company/:id", h.UpdatePortfolioCompanyPage)
	r.Post("/investment/update_portfolio_company/:id", h.UpdatePortfolioCompany)
	r.All("/investment/delete_portfolio_company/:id", h.DeletePortfolioCompany)
	r.Get("/investment/create/:company_id", h.CreateInvestmentPage)
	r.Post("/investment/create/:company_id", h.CreateInvestment)
	r.Get("/investment/update/:id", h.UpdateInvestmentPage)
	r.Post("/investment/update/:id", h.UpdateInvestment)
	r.Get("/investment/delete/:id", h.DeleteInvestmentPage)
	r.Post("/investment/delete/:id", h.DeleteInvestment)

	r.Get("/contract_right_list/:investment_id", h.ContractRights)
	r.Get("/contract_right/create/:investment_id", h.CreateContractRightPage)
	r.Post("/contract_right/create/:investment_id", h.CreateContractRight)
	r.Get("/contract_right/delete/:id", h.DeleteContractRightPage)
	r.Post("/contract_right/delete/:id", h.DeleteContractRight)

	r.Get(programmesPath, h.Programmes)
	r.Get("/programme_page/create/", h.CreateProgrammePage)
	r.Post("/programme_page/create/", h.CreateProgramme)
	r.Get("/programme_page/search_result", h.SearchProgrammes)
	r.Post("/programme_page/search_result", h.SearchProgrammes)
	r.Get("/programme_page/:id/update/", h.UpdateProgrammePage)
	r.Post("/programme_page/:id/update/", h.UpdateProgramme)
	r.Get("/programme_page/:id/delete/", h.DeleteProgrammePage)
	r.Post("/programme_page/:id/delete/", h.DeleteProgramme)
	r.Post("/programme_page/:id/upload_document/", h.UploadProgrammeDocument)
	r.Get("/programme_page/:id", h.ProgrammePage)

	r.Get("/redirect/:file_id", h.OpenDocument)
	r.Get("/download_document/:file_id", h.DownloadDocument)
	r.Get("/document_permissions/:file_id", h.ToggleDocumentPrivacy)
	r.Get("/delete_document/:file_id", h.DeleteDocument)
	r.Post("/replace_document/:file_id", h.ReplaceDocumentFile)

	r.Get(settingsPath, h.AccountSettings)
	r.Post("/account_settings/change_password", h.ChangePassword)
	r.Post("/account_settings/contact_details", h.UpdateContactDetails)
	r.Post("/account_settings/upload_profile_picture", h.UploadProfilePicture)
	r.Get("/account_settings/remove_profile_picture", h.RemoveProfilePicture)
	r.Get("/deactivate_account", h.DeactivateAccount)

	staffOnly := auth.RequireStaff(logoutPath)
	r.Get(archivePath, staffOnly, h.Archive)
	r.Get("/archive/search", staffOnly, h.SearchArchive)
	r.Get("/change_archived_company_filter/", staffOnly, h.ChangeArchivedCompanyFilter)
	r.Get("/change_archived_individual_filter/", staffOnly, h.ChangeArchivedIndividualFilter)

	perms := r.Group("/permissions", auth.RequireStaff(dashboardPath))
	perms.Get("/users/", h.Users)
	perms.Get("/create_user/", h.CreateUserPage)
	perms.Post("/create_user/", h.CreateUser)
	perms.Get("/:id/edit_user/", h.EditUserPage)
	perms.Post("/:id/edit_user/", h.EditUser)
	perms.Get("/:id/delete_user/", h.DeleteUserPage)
	perms.Post("/:id/delete_user/", h.DeleteUser)
	perms.Get("/:id/reset_password/", h.ResetPasswordPage)
	perms.Post("/:id/reset_password/", h.ResetPassword)
	perms.Get("/group_list/", h.Groups)
	perms.Get("/create_group/", h.CreateGroupPage)
	perms.Post("/create_group/", h.CreateGroup)
	perms.Get("/:id/edit_group/", h.EditGroupPage)
	perms.Post("/:id/edit_group/", h.EditGroup)
	perms.Get("/:id/delete_group/", h.DeleteGroupPage)
	perms.Post("/:id/delete_group/", h.DeleteGroup)
}
