package handler

import (
	"strconv"

	"campus-report/internal/dto"
	"campus-report/internal/service"
	"campus-report/internal/utils"

	"github.com/gin-gonic/gin"
)

const msgInvalidBody = "Invalid request body"

// UserHandler 用户处理器
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers 获取用户列表
// @Summary 获取用户列表
// @Tags 用户
// @Produce json
// @Success 200 {object} utils.Response{data=[]dto.UserListItem}
// @Router /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		utils.Fail(c, err, "Error fetching users")
		return
	}

	utils.SuccessWithMessage(c, "Users retrieved successfully", users)
}

// GetUser 获取用户详情
// @Summary 获取用户详情
// @Tags 用户
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} utils.Response{data=dto.UserDetail}
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "User not found")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err, "Error fetching user")
		return
	}

	utils.SuccessWithMessage(c, "User retrieved successfully", user)
}

// Register 用户注册
// @Summary 用户注册
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册信息"
// @Success 201 {object} utils.Response{data=dto.UserResponse}
// @Router /api/users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, msgInvalidBody)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.Fail(c, err, "Error creating user")
		return
	}

	utils.Created(c, "User created successfully", user)
}

// Login 用户登录，只校验密码
// @Summary 用户登录
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录信息"
// @Success 200 {object} utils.Response{data=dto.UserResponse}
// @Router /api/users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, msgInvalidBody)
		return
	}

	user, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		utils.Fail(c, err, "Error during login")
		return
	}

	utils.SuccessWithMessage(c, "Login successful", user)
}

// UpdateUser 更新用户
// @Summary 更新用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body dto.UpdateUserRequest true "要修改的字段"
// @Success 200 {object} utils.Response{data=dto.UserResponse}
// @Router /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "User not found")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, msgInvalidBody)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		utils.Fail(c, err, "Error updating user")
		return
	}

	utils.SuccessWithMessage(c, "User updated successfully", user)
}

// DeleteUser 删除用户
// @Summary 删除用户
// @Tags 用户
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} utils.Response
// @Router /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "User not found")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		utils.Fail(c, err, "Error deleting user")
		return
	}

	utils.SuccessWithMessage(c, "User deleted successfully", nil)
}

// paramID 解析路径中的 id，非正整数时直接返回404
func paramID(c *gin.Context, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.NotFound(c, notFound)
		return 0, false
	}
	return uint(id), true
}
