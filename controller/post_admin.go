package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/service"
)

// PostAdminController 定义帖子管理控制器的结构体
type PostAdminController struct {
	adminService service.AdminService
}

// NewPostAdminController 构造函数，注入服务层依赖
func NewPostAdminController(adminService service.AdminService) *PostAdminController {
	return &PostAdminController{
		adminService: adminService,
	}
}

// ListPosts 处理按状态分页查询帖子的 HTTP 请求
// @Summary      列出帖子
// @Description  按生命周期状态分页查询帖子列表。
// @Tags         admin-posts (管理员-帖子)
// @Accept       json
// @Produce      json
// @Param        status query int false "按状态过滤 (0=草稿 1=生成中 2=待审核 3=需介入 4=已批准 5=发布中 6=已发布 7=失败 8=已跳过)" Enums(0,1,2,3,4,5,6,7,8)
// @Param        page query int true "页码（从 1 开始）" minimum(1)
// @Param        pageSize query int true "每页数量" minimum(1) maximum(100)
// @Success      200 {object} vo.ListPostsResponseWrapper "帖子检索成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的查询参数"
// @Failure      500 {object} vo.BaseResponseWrapper "查询帖子时发生内部错误"
// @Router       /api/v1/autopost/admin/posts [get]
func (ctrl *PostAdminController) ListPosts(c *gin.Context) {
	var req dto.ListPostsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}

	result, err := ctrl.adminService.ListPosts(c.Request.Context(), &req)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "查询帖子列表失败: "+err.Error())
		return
	}

	response.RespondSuccess(c, result, "帖子检索成功")
}

// GetPostDetail 处理查询帖子详情的 HTTP 请求
// @Summary      帖子详情
// @Description  查询帖子的基础信息与全部修订历史（修订号升序）。
// @Tags         admin-posts (管理员-帖子)
// @Accept       json
// @Produce      json
// @Param        post_id path uint64 true "帖子 ID" Format(uint64)
// @Success      200 {object} vo.PostDetailResponseWrapper "详情检索成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的帖子 ID"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子未找到"
// @Failure      500 {object} vo.BaseResponseWrapper "查询详情时发生内部错误"
// @Router       /api/v1/autopost/admin/posts/{post_id} [get]
func (ctrl *PostAdminController) GetPostDetail(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的帖子 ID")
		return
	}

	detail, err := ctrl.adminService.GetPostDetail(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, "帖子未找到")
		} else {
			response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "查询帖子详情失败: "+err.Error())
		}
		return
	}

	response.RespondSuccess(c, detail, "详情检索成功")
}

// ApprovePost 处理批准帖子的 HTTP 请求
// @Summary      批准帖子
// @Description  将待审核/需介入的帖子批准发布，随后自动投递发布任务。
// @Tags         admin-posts (管理员-帖子)
// @Accept       json
// @Produce      json
// @Param        request body dto.ApprovePostRequest true "批准请求体"
// @Success      200 {object} vo.BaseResponseWrapper "帖子批准成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求负载或状态不允许批准"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子未找到"
// @Failure      500 {object} vo.BaseResponseWrapper "批准过程中发生内部错误"
// @Router       /api/v1/autopost/admin/posts/approve [post]
func (ctrl *PostAdminController) ApprovePost(c *gin.Context) {
	var req dto.ApprovePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}

	if err := ctrl.adminService.ApprovePost(c.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, commonerrors.ErrRepoNotFound):
			response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, "帖子未找到")
		case errors.Is(err, myErrors.ErrInvalidTransition):
			response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "当前状态不允许批准")
		default:
			response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "批准帖子失败: "+err.Error())
		}
		return
	}

	response.RespondSuccess[any](c, nil, "帖子批准成功")
}

// SkipPost 处理跳过帖子的 HTTP 请求
// @Summary      跳过帖子
// @Description  将任意非终态帖子标记为跳过，对应排期决策回填过期结果。
// @Tags         admin-posts (管理员-帖子)
// @Accept       json
// @Produce      json
// @Param        request body dto.SkipPostRequest true "跳过请求体"
// @Success      200 {object} vo.BaseResponseWrapper "帖子跳过成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求负载或状态不允许跳过"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子未找到"
// @Failure      500 {object} vo.BaseResponseWrapper "跳过过程中发生内部错误"
// @Router       /api/v1/autopost/admin/posts/skip [post]
func (ctrl *PostAdminController) SkipPost(c *gin.Context) {
	var req dto.SkipPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}

	if err := ctrl.adminService.SkipPost(c.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, commonerrors.ErrRepoNotFound):
			response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, "帖子未找到")
		case errors.Is(err, myErrors.ErrInvalidTransition):
			response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "终态帖子不允许跳过")
		default:
			response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "跳过帖子失败: "+err.Error())
		}
		return
	}

	response.RespondSuccess[any](c, nil, "帖子跳过成功")
}

// RegeneratePost 处理重新生成的 HTTP 请求
// @Summary      重新生成
// @Description  对已有帖子重新触发一轮生成尝试，复用上一修订的生成参数。
// @Tags         admin-posts (管理员-帖子)
// @Accept       json
// @Produce      json
// @Param        request body dto.RegeneratePostRequest true "重新生成请求体"
// @Success      200 {object} vo.BaseResponseWrapper "再生成任务已投递"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求负载"
// @Failure      404 {object} vo.BaseResponseWrapper "帖子未找到"
// @Failure      500 {object} vo.BaseResponseWrapper "投递任务时发生内部错误"
// @Router       /api/v1/autopost/admin/posts/regenerate [post]
func (ctrl *PostAdminController) RegeneratePost(c *gin.Context) {
	var req dto.RegeneratePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}

	if err := ctrl.adminService.RegeneratePost(c.Request.Context(), &req); err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, "帖子未找到")
		} else {
			response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "触发再生成失败: "+err.Error())
		}
		return
	}

	response.RespondSuccess[any](c, nil, "再生成任务已投递")
}

// ToggleOption 处理启用/停用维度选项的 HTTP 请求
// @Summary      切换维度选项
// @Description  启用或停用一个内容维度选项，停用的选项不再参与计划抽取。
// @Tags         admin-catalog (管理员-目录)
// @Accept       json
// @Produce      json
// @Param        request body dto.ToggleOptionRequest true "切换请求体"
// @Success      200 {object} vo.BaseResponseWrapper "切换成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求负载"
// @Failure      500 {object} vo.BaseResponseWrapper "切换时发生内部错误"
// @Router       /api/v1/autopost/admin/options/toggle [post]
func (ctrl *PostAdminController) ToggleOption(c *gin.Context) {
	var req dto.ToggleOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}

	if err := ctrl.adminService.ToggleOption(c.Request.Context(), &req); err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "切换维度选项失败: "+err.Error())
		return
	}

	response.RespondSuccess[any](c, nil, "切换成功")
}

// ToggleTemplate 处理启用/停用内容模板的 HTTP 请求
// @Summary      切换内容模板
// @Description  启用或停用一个内容模板（调度臂），停用的臂不再参与排期。
// @Tags         admin-catalog (管理员-目录)
// @Accept       json
// @Produce      json
// @Param        request body dto.ToggleOptionRequest true "切换请求体"
// @Success      200 {object} vo.BaseResponseWrapper "切换成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求负载"
// @Failure      500 {object} vo.BaseResponseWrapper "切换时发生内部错误"
// @Router       /api/v1/autopost/admin/templates/toggle [post]
func (ctrl *PostAdminController) ToggleTemplate(c *gin.Context) {
	var req dto.ToggleOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}

	if err := ctrl.adminService.ToggleTemplate(c.Request.Context(), &req); err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "切换模板失败: "+err.Error())
		return
	}

	response.RespondSuccess[any](c, nil, "切换成功")
}

// RegisterRoutes 注册帖子管理相关路由
func (ctrl *PostAdminController) RegisterRoutes(group *gin.RouterGroup) {
	adminPosts := group.Group("/admin/posts")
	{
		adminPosts.GET("", ctrl.ListPosts)                   // GET /admin/posts
		adminPosts.GET("/:post_id", ctrl.GetPostDetail)      // GET /admin/posts/{post_id}
		adminPosts.POST("/approve", ctrl.ApprovePost)        // POST /admin/posts/approve
		adminPosts.POST("/skip", ctrl.SkipPost)              // POST /admin/posts/skip
		adminPosts.POST("/regenerate", ctrl.RegeneratePost)  // POST /admin/posts/regenerate
	}

	adminCatalog := group.Group("/admin")
	{
		adminCatalog.POST("/options/toggle", ctrl.ToggleOption)     // POST /admin/options/toggle
		adminCatalog.POST("/templates/toggle", ctrl.ToggleTemplate) // POST /admin/templates/toggle
	}
}
