package service

import (
	"context"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/models/vo"
	"github.com/Xushengqwer/autopost_service/mq/producer"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
)

// AdminService 定义了运营后台的管理操作接口。
// 审核结论在后台直接操作时走与事件消费相同的 ReviewService 路径，
// 保证两个入口的状态机语义一致。
type AdminService interface {
	// ListPosts 按状态分页查询帖子。
	ListPosts(ctx context.Context, req *dto.ListPostsRequest) (*vo.ListPostsResponse, error)

	// GetPostDetail 查询帖子详情与全部修订历史（修订号升序）。
	GetPostDetail(ctx context.Context, postID uint64) (*vo.PostDetailResponse, error)

	// ApprovePost 后台批准帖子。
	ApprovePost(ctx context.Context, req *dto.ApprovePostRequest) error

	// SkipPost 后台跳过帖子。
	SkipPost(ctx context.Context, req *dto.SkipPostRequest) error

	// RegeneratePost 对已有帖子重新触发一轮生成（复用上一修订的生成参数）。
	RegeneratePost(ctx context.Context, req *dto.RegeneratePostRequest) error

	// ListDecisions 分页查询排期决策审计记录。
	ListDecisions(ctx context.Context, req *dto.ListDecisionsRequest) (*vo.ListDecisionsResponse, error)

	// ToggleOption 启用/停用一个维度选项。
	ToggleOption(ctx context.Context, req *dto.ToggleOptionRequest) error

	// ToggleTemplate 启用/停用一个内容模板（臂）。
	ToggleTemplate(ctx context.Context, req *dto.ToggleOptionRequest) error
}

// adminService 是 AdminService 接口的具体实现。
type adminService struct {
	postRepo     mysql.PostRepository
	revisionRepo mysql.PostRevisionRepository
	decisionRepo mysql.BanditDecisionRepository
	optionRepo   mysql.DimensionOptionRepository
	templateRepo mysql.ContentTemplateRepository
	reviewSvc    ReviewService
	kafkaSvc     *producer.KafkaProducer
	logger       *core.ZapLogger
}

// NewAdminService 是 adminService 的构造函数。
func NewAdminService(
	postRepo mysql.PostRepository,
	revisionRepo mysql.PostRevisionRepository,
	decisionRepo mysql.BanditDecisionRepository,
	optionRepo mysql.DimensionOptionRepository,
	templateRepo mysql.ContentTemplateRepository,
	reviewSvc ReviewService,
	kafkaSvc *producer.KafkaProducer,
	logger *core.ZapLogger,
) AdminService {
	return &adminService{
		postRepo:     postRepo,
		revisionRepo: revisionRepo,
		decisionRepo: decisionRepo,
		optionRepo:   optionRepo,
		templateRepo: templateRepo,
		reviewSvc:    reviewSvc,
		kafkaSvc:     kafkaSvc,
		logger:       logger,
	}
}

func (s *adminService) ListPosts(ctx context.Context, req *dto.ListPostsRequest) (*vo.ListPostsResponse, error) {
	var status *enums.PostStatus
	if req.Status != nil {
		v := enums.PostStatus(*req.Status)
		status = &v
	}

	offset := (req.Page - 1) * req.PageSize
	posts, total, err := s.postRepo.ListPosts(ctx, status, offset, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("查询帖子列表失败: %w", err)
	}

	resp := &vo.ListPostsResponse{
		Posts: make([]*vo.PostResponse, 0, len(posts)),
		Total: total,
	}
	for _, post := range posts {
		resp.Posts = append(resp.Posts, vo.NewPostResponse(post))
	}
	return resp, nil
}

func (s *adminService) GetPostDetail(ctx context.Context, postID uint64) (*vo.PostDetailResponse, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	revisions, err := s.revisionRepo.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("查询帖子 %d 的修订历史失败: %w", postID, err)
	}

	detail := &vo.PostDetailResponse{
		Post:      vo.NewPostResponse(post),
		Revisions: make([]*vo.RevisionResponse, 0, len(revisions)),
	}
	for _, revision := range revisions {
		detail.Revisions = append(detail.Revisions, &vo.RevisionResponse{
			ID:            revision.ID,
			RevisionNo:    revision.RevisionNo,
			Content:       revision.Content,
			Backend:       revision.Backend,
			FromFallback:  revision.FromFallback,
			SimilarityMax: revision.SimilarityMax,
			Hits:          revision.SimilarityHits,
			CreatedAt:     revision.CreatedAt,
		})
	}
	return detail, nil
}

func (s *adminService) ApprovePost(ctx context.Context, req *dto.ApprovePostRequest) error {
	return s.reviewSvc.MarkApproved(ctx, req.PostID, req.ApproverID)
}

func (s *adminService) SkipPost(ctx context.Context, req *dto.SkipPostRequest) error {
	return s.reviewSvc.MarkSkipped(ctx, req.PostID, req.OperatorID, req.Reason)
}

func (s *adminService) RegeneratePost(ctx context.Context, req *dto.RegeneratePostRequest) error {
	// 先确认帖子存在，避免给不存在的帖子投任务
	if _, err := s.postRepo.GetPostByID(ctx, req.PostID); err != nil {
		return err
	}

	if err := s.kafkaSvc.EnqueueGenerateJob(ctx, req.PostID, 0, nil, req.BackendHint); err != nil {
		return fmt.Errorf("投递再生成任务失败: %w", err)
	}

	s.logger.Info("已触发帖子再生成",
		zap.Uint64("postID", req.PostID),
		zap.String("backendHint", req.BackendHint),
	)
	return nil
}

func (s *adminService) ListDecisions(ctx context.Context, req *dto.ListDecisionsRequest) (*vo.ListDecisionsResponse, error) {
	offset := (req.Page - 1) * req.PageSize
	decisions, total, err := s.decisionRepo.List(ctx, offset, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("查询决策记录失败: %w", err)
	}

	resp := &vo.ListDecisionsResponse{
		Decisions: make([]*vo.DecisionResponse, 0, len(decisions)),
		Total:     total,
	}
	for _, decision := range decisions {
		resp.Decisions = append(resp.Decisions, vo.NewDecisionResponse(decision))
	}
	return resp, nil
}

func (s *adminService) ToggleOption(ctx context.Context, req *dto.ToggleOptionRequest) error {
	if err := s.optionRepo.SetEnabled(ctx, req.ID, req.Enabled); err != nil {
		return fmt.Errorf("切换维度选项 %d 失败: %w", req.ID, err)
	}
	return nil
}

func (s *adminService) ToggleTemplate(ctx context.Context, req *dto.ToggleOptionRequest) error {
	if err := s.templateRepo.SetEnabled(ctx, req.ID, req.Enabled); err != nil {
		return fmt.Errorf("切换模板 %d 失败: %w", req.ID, err)
	}
	return nil
}
