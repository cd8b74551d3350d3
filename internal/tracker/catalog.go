package tracker

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/jobtracker/internal/store"
)

// createCompanyRequest は企業登録リクエストのJSON構造。
type createCompanyRequest struct {
	CompanyName string `json:"companyName" binding:"required"`
	Location    string `json:"location"`
	ContactInfo string `json:"contactInfo"`
	Industry    string `json:"industry"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// createRoleRequest は職種登録リクエストのJSON構造。
type createRoleRequest struct {
	CompanyID   int64  `json:"companyID" binding:"required,gt=0"`
	RoleTitle   string `json:"roleTitle" binding:"required"`
	JobType     string `json:"jobType"`
	Description string `json:"description"`
	SalaryRange string `json:"salaryRange"`
	Location    string `json:"location"`
}

// handleListJobs は企業情報付きの職種一覧を返すハンドラ。
func (s *Server) handleListJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := s.store.ListRoles(c.Request.Context())
		if err != nil {
			respondStoreError(c, err, "", "求人一覧の取得に失敗しました")
			return
		}
		if roles == nil {
			roles = []store.Role{}
		}
		c.JSON(http.StatusOK, roles)
	}
}

// handleListCompanies は企業一覧を返すハンドラ。
func (s *Server) handleListCompanies() gin.HandlerFunc {
	return func(c *gin.Context) {
		companies, err := s.store.ListCompanies(c.Request.Context())
		if err != nil {
			respondStoreError(c, err, "", "企業一覧の取得に失敗しました")
			return
		}
		if companies == nil {
			companies = []store.Company{}
		}
		c.JSON(http.StatusOK, companies)
	}
}

// handleCreateCompany は企業を登録するハンドラ。
func (s *Server) handleCreateCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCompanyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "companyNameが必要です"})
			return
		}

		company, err := s.store.CreateCompany(c.Request.Context(), store.Company{
			Name:        req.CompanyName,
			Location:    req.Location,
			ContactInfo: req.ContactInfo,
			Industry:    req.Industry,
			City:        req.City,
			Country:     req.Country,
		})
		if err != nil {
			respondStoreError(c, err, "", "企業の登録に失敗しました")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"company": company})
	}
}

// handleCreateRole は職種を登録するハンドラ。
func (s *Server) handleCreateRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "companyIDとroleTitleが必要です"})
			return
		}

		role, err := s.store.CreateRole(c.Request.Context(), store.Role{
			CompanyID:   req.CompanyID,
			Title:       req.RoleTitle,
			JobType:     req.JobType,
			Description: req.Description,
			SalaryRange: req.SalaryRange,
			Location:    req.Location,
		})
		if err != nil {
			respondStoreError(c, err, "企業が見つかりません", "職種の登録に失敗しました")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"role": role})
	}
}
