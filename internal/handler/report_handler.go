package handler

import (
	"errors"
	"net/http"
	"strconv"

	"campus-report/internal/apperror"
	"campus-report/internal/dto"
	"campus-report/internal/service"
	"campus-report/internal/upload"
	"campus-report/internal/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler 报告处理器
type ReportHandler struct {
	reportService *service.ReportService
	photos        *upload.PhotoStore
	fieldName     string
}

// NewReportHandler 创建报告处理器，fieldName 为照片的表单字段名
func NewReportHandler(reportService *service.ReportService, photos *upload.PhotoStore, fieldName string) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		photos:        photos,
		fieldName:     fieldName,
	}
}

// ListReports 分页获取报告
// @Summary 获取报告列表
// @Tags 报告
// @Produce json
// @Param page query int false "页码"
// @Param limit query int false "每页条数"
// @Param search query string false "标题/描述/地点关键字"
// @Success 200 {object} utils.Response{data=[]dto.ReportResponse}
// @Router /api/reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	// 无效值交给服务层回落到默认值
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.reportService.ListReports(c.Request.Context(), dto.ReportQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
	})
	if err != nil {
		utils.Fail(c, err, "Error fetching reports")
		return
	}

	utils.PaginatedResponse(c, "Reports retrieved successfully", result.Reports,
		utils.NewPagination(result.Total, result.Page, result.Limit))
}

// GetRecentReports 获取最新报告
// @Summary 获取最新报告
// @Tags 报告
// @Produce json
// @Param limit query int false "条数，默认5"
// @Success 200 {object} utils.Response{data=[]dto.ReportResponse}
// @Router /api/reports/recent [get]
func (h *ReportHandler) GetRecentReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	reports, err := h.reportService.GetRecentReports(c.Request.Context(), limit)
	if err != nil {
		utils.Fail(c, err, "Error fetching recent reports")
		return
	}

	utils.SuccessWithMessage(c, "Recent reports retrieved successfully", reports)
}

// GetReport 获取报告详情
// @Summary 获取报告详情
// @Tags 报告
// @Produce json
// @Param id path int true "报告ID"
// @Success 200 {object} utils.Response{data=dto.ReportResponse}
// @Router /api/reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := paramID(c, "Report not found")
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err, "Error fetching report")
		return
	}

	utils.SuccessWithMessage(c, "Report retrieved successfully", report)
}

// GetReportsByUser 获取用户的全部报告
// @Summary 获取用户的报告
// @Tags 报告
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} utils.Response{data=[]dto.ReportResponse}
// @Router /api/users/{id}/reports [get]
func (h *ReportHandler) GetReportsByUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		// 不存在的用户没有报告
		utils.SuccessWithMessage(c, "User reports retrieved successfully", []dto.ReportResponse{})
		return
	}

	reports, err := h.reportService.GetReportsByUser(c.Request.Context(), uint(userID))
	if err != nil {
		utils.Fail(c, err, "Error fetching user reports")
		return
	}

	utils.SuccessWithMessage(c, "User reports retrieved successfully", reports)
}

// CreateReport 创建报告
// @Summary 创建报告
// @Tags 报告
// @Accept multipart/form-data
// @Produce json
// @Param description formData string true "描述"
// @Param report_title formData string true "标题"
// @Param location formData string true "地点"
// @Param user_id formData int true "用户ID"
// @Param photo formData file false "照片"
// @Success 201 {object} utils.Response{data=dto.ReportResponse}
// @Router /api/reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, msgInvalidBody)
		return
	}

	photo, ok := h.receivePhoto(c)
	if !ok {
		return
	}

	report, err := h.reportService.CreateReport(c.Request.Context(), &req, photo)
	if err != nil {
		utils.Fail(c, err, "Error creating report")
		return
	}

	utils.Created(c, "Report created successfully", report)
}

// UpdateReport 更新报告，可替换照片
// @Summary 更新报告
// @Tags 报告
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "报告ID"
// @Param photo formData file false "新照片"
// @Success 200 {object} utils.Response{data=dto.ReportResponse}
// @Router /api/reports/{id} [put]
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	id, ok := paramID(c, "Report not found")
	if !ok {
		return
	}

	var req dto.UpdateReportRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, msgInvalidBody)
		return
	}

	photo, ok := h.receivePhoto(c)
	if !ok {
		return
	}

	report, err := h.reportService.UpdateReport(c.Request.Context(), id, &req, photo)
	if err != nil {
		utils.Fail(c, err, "Error updating report")
		return
	}

	utils.SuccessWithMessage(c, "Report updated successfully", report)
}

// DeleteReport 删除报告
// @Summary 删除报告
// @Tags 报告
// @Produce json
// @Param id path int true "报告ID"
// @Success 200 {object} utils.Response
// @Router /api/reports/{id} [delete]
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := paramID(c, "Report not found")
	if !ok {
		return
	}

	if err := h.reportService.DeleteReport(c.Request.Context(), id); err != nil {
		utils.Fail(c, err, "Error deleting report")
		return
	}

	utils.SuccessWithMessage(c, "Report deleted successfully", nil)
}

// receivePhoto 校验并保存照片，没有上传时返回空文件名
// 失败时已写出响应，返回 false
func (h *ReportHandler) receivePhoto(c *gin.Context) (string, bool) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return "", true
	}
	if err != nil {
		utils.BadRequest(c, msgInvalidBody)
		return "", false
	}

	files := form.File[h.fieldName]
	switch len(files) {
	case 0:
		return "", true
	case 1:
	default:
		utils.BadRequest(c, "Only one photo can be uploaded")
		return "", false
	}

	filename, err := h.photos.Save(c.Request.Context(), files[0])
	if err != nil {
		switch {
		case upload.IsRejection(err):
			utils.BadRequest(c, h.photos.RejectionMessage(err))
		case errors.Is(err, upload.ErrBusy):
			utils.Fail(c, apperror.Unavailable(h.photos.RejectionMessage(err), err), "")
		default:
			utils.Fail(c, err, "Error uploading photo")
		}
		return "", false
	}
	return filename, true
}
