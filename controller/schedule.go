package controller

import (
	"errors"
	"net/http"

	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/service"
)

// ScheduleController 定义排期管理控制器的结构体
type ScheduleController struct {
	scheduler    service.BanditScheduler
	adminService service.AdminService
}

// NewScheduleController 构造函数，注入服务层依赖
func NewScheduleController(scheduler service.BanditScheduler, adminService service.AdminService) *ScheduleController {
	return &ScheduleController{
		scheduler:    scheduler,
		adminService: adminService,
	}
}

// TriggerDaily 处理手动触发每日排期周期的 HTTP 请求
// @Summary      手动触发排期
// @Description  立即执行一次每日排期周期。槽位幂等约束保证重复触发安全。
// @Tags         admin-schedule (管理员-排期)
// @Accept       json
// @Produce      json
// @Success      200 {object} vo.BaseResponseWrapper "排期周期执行完成"
// @Failure      500 {object} vo.BaseResponseWrapper "排期执行失败"
// @Router       /api/v1/autopost/admin/schedule/trigger [post]
func (ctrl *ScheduleController) TriggerDaily(c *gin.Context) {
	if err := ctrl.scheduler.ScheduleDaily(c.Request.Context()); err != nil {
		// "今天没有可投放的臂"是合法结论，不按故障上报
		if errors.Is(err, myErrors.ErrNoEligibleArm) {
			response.RespondSuccess[any](c, nil, "没有可投放的臂，本次不排期")
			return
		}
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "排期周期执行失败: "+err.Error())
		return
	}

	response.RespondSuccess[any](c, nil, "排期周期执行完成")
}

// ListDecisions 处理分页查询排期决策记录的 HTTP 请求
// @Summary      决策记录
// @Description  分页查询排期决策审计记录，按日期与槽位倒序。
// @Tags         admin-schedule (管理员-排期)
// @Accept       json
// @Produce      json
// @Param        page query int true "页码（从 1 开始）" minimum(1)
// @Param        pageSize query int true "每页数量" minimum(1) maximum(100)
// @Success      200 {object} vo.ListDecisionsResponseWrapper "决策记录检索成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的查询参数"
// @Failure      500 {object} vo.BaseResponseWrapper "查询时发生内部错误"
// @Router       /api/v1/autopost/admin/schedule/decisions [get]
func (ctrl *ScheduleController) ListDecisions(c *gin.Context) {
	var req dto.ListDecisionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}

	result, err := ctrl.adminService.ListDecisions(c.Request.Context(), &req)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "查询决策记录失败: "+err.Error())
		return
	}

	response.RespondSuccess(c, result, "决策记录检索成功")
}

// RegisterRoutes 注册排期管理相关路由
func (ctrl *ScheduleController) RegisterRoutes(group *gin.RouterGroup) {
	schedule := group.Group("/admin/schedule")
	{
		schedule.POST("/trigger", ctrl.TriggerDaily)     // POST /admin/schedule/trigger
		schedule.GET("/decisions", ctrl.ListDecisions)   // GET /admin/schedule/decisions
	}
}
