package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/dependencies"
	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
	redisRepo "github.com/Xushengqwer/autopost_service/repo/redis"
)

// 帖子错误表面使用的错误码。
const (
	errCodeBackendsExhausted = "ALL_BACKENDS_EXHAUSTED"
	errCodeValidationFailed  = "VALIDATION_EXHAUSTED"
	fixedTextBackendID       = "fixed"
)

// GenerationService 定义了生成编排的接口。
// 单次调用内的尝试循环严格串行：同一帖子的修订号分配与相似度比对
// 都要求尝试之间有全序，不允许并行尝试竞争同一帖子。
type GenerationService interface {
	// Generate 对指定帖子执行一轮完整的生成尝试循环。
	// - 主后端尝试最多 maxRetries 次（后端异常与相似度超标都消耗一次尝试）。
	// - 主后端耗尽后对兜底后端恰好尝试一次，其结果即便相似度超标也接受，但会打标。
	// - 结构校验失败走独立的修正重试预算，耗尽后升级 ACTION_REQUIRED。
	// - 全部路径失败时返回 ErrAllBackendsExhausted，帖子带着最近错误进入 ACTION_REQUIRED。
	Generate(ctx context.Context, postID uint64, opts *dto.GenerateOptions) (*dto.GenerateResult, error)
}

// generationService 是 GenerationService 接口的具体实现。
type generationService struct {
	postRepo      mysql.PostRepository
	revisionRepo  mysql.PostRevisionRepository
	embeddingRepo mysql.PostEmbeddingRepository
	templateRepo  mysql.ContentTemplateRepository
	optionRepo    mysql.DimensionOptionRepository
	recentTexts   redisRepo.RecentTextRepository
	planSvc       PlanService
	similaritySvc SimilarityService
	checker       PostChecker
	reviewSvc     ReviewService
	registry      *dependencies.AIRegistry
	db            *gorm.DB
	cfg           appConfig.GenerationConfig
	logger        *core.ZapLogger
}

// NewGenerationService 是 generationService 的构造函数。
func NewGenerationService(
	db *gorm.DB,
	postRepo mysql.PostRepository,
	revisionRepo mysql.PostRevisionRepository,
	embeddingRepo mysql.PostEmbeddingRepository,
	templateRepo mysql.ContentTemplateRepository,
	optionRepo mysql.DimensionOptionRepository,
	recentTexts redisRepo.RecentTextRepository,
	planSvc PlanService,
	similaritySvc SimilarityService,
	checker PostChecker,
	reviewSvc ReviewService,
	registry *dependencies.AIRegistry,
	cfg appConfig.GenerationConfig,
	logger *core.ZapLogger,
) GenerationService {
	return &generationService{
		postRepo:      postRepo,
		revisionRepo:  revisionRepo,
		embeddingRepo: embeddingRepo,
		templateRepo:  templateRepo,
		optionRepo:    optionRepo,
		recentTexts:   recentTexts,
		planSvc:       planSvc,
		similaritySvc: similaritySvc,
		checker:       checker,
		reviewSvc:     reviewSvc,
		registry:      registry,
		db:            db,
		cfg:           cfg,
		logger:        logger,
	}
}

// acceptedDraft 一次被接受的生成尝试，待落库。
type acceptedDraft struct {
	text           string
	backend        string
	fromFallback   bool
	maxSimilarity  float64
	hits           []entities.SimilarityHit
	vector         []float64
	similarityOver bool
}

func (s *generationService) Generate(ctx context.Context, postID uint64, opts *dto.GenerateOptions) (*dto.GenerateResult, error) {
	if opts == nil {
		opts = &dto.GenerateOptions{}
	}

	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("加载帖子失败: %w", err)
	}

	// 标记 GENERATING。帖子行即检查点: 停留在 GENERATING 的帖子被恢复任务
	// 重新入队时同样走这条路径（GENERATING → GENERATING 是合法迁移）。
	if err := s.postRepo.TransitionStatus(ctx, s.db, postID, post.Status, enums.StatusGenerating, nil); err != nil {
		return nil, fmt.Errorf("帖子 %d 进入 GENERATING 失败: %w", postID, err)
	}

	// 固定文案臂: 直接采用字面模板，跳过计划/后端/相似度/校验
	if opts.TemplateID != 0 {
		template, err := s.templateRepo.GetByID(ctx, opts.TemplateID)
		if err == nil && template.FixedText != "" {
			return s.acceptDraft(ctx, post, nil, &acceptedDraft{
				text:    template.FixedText,
				backend: fixedTextBackendID,
			}, 0)
		}
	}

	plan, err := s.resolvePlan(ctx, post, opts)
	if err != nil {
		return nil, err
	}

	systemPrompt := s.systemPromptFor(ctx, opts.TemplateID)
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.cfg.MaxTokens
	}

	primary, err := s.pickPrimary(opts.BackendHint)
	if err != nil {
		return nil, err
	}

	recent, err := s.recentTexts.Recent(ctx, s.cfg.RecentWindow)
	if err != nil {
		s.logger.Warn("读取近期文案失败，结构查重降级为空窗口", zap.Error(err))
		recent = nil
	}

	var (
		lastErr     error
		fixPrompt   string
		fixAttempts int
	)

	// 主后端尝试循环
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		text, genErr := primary.Generate(ctx, buildUserPrompt(plan, fixPrompt), systemPrompt, maxTokens)
		if genErr != nil {
			// 后端异常按次捕获并记日志，消耗一次尝试但不中断循环
			lastErr = genErr
			s.logger.Warn("后端生成失败",
				zap.Uint64("postID", postID),
				zap.String("backend", primary.Name()),
				zap.Int("attempt", attempt+1),
				zap.Error(genErr),
			)
			continue
		}

		// 结构校验走独立的修正重试预算
		checkResult := s.checker.Check(text, plan, recent)
		if !checkResult.Passed {
			if fixAttempts >= s.cfg.MaxFixRetries {
				return s.escalateValidation(ctx, post, plan, text, primary.Name(), checkResult, fixAttempts)
			}
			fixAttempts++
			fixPrompt = s.checker.BuildFixPrompt(checkResult)
			s.logger.Info("结构校验未通过，进入修正重试",
				zap.Uint64("postID", postID),
				zap.Int("fixAttempt", fixAttempts),
				zap.Strings("riskFlags", checkResult.RiskFlags),
			)
			attempt-- // 修正重试不消耗主尝试预算
			continue
		}

		vector, maxSim, hits, simErr := s.similaritySvc.CheckText(ctx, text)
		if simErr != nil {
			lastErr = simErr
			continue
		}
		// 阈值为含边界的可接受上限: 只有严格大于才拒绝
		if maxSim > s.cfg.SimilarityThreshold {
			lastErr = fmt.Errorf("相似度 %.4f 超过阈值 %.4f", maxSim, s.cfg.SimilarityThreshold)
			s.logger.Info("相似度超标，消耗一次尝试",
				zap.Uint64("postID", postID),
				zap.Float64("maxSimilarity", maxSim),
			)
			continue
		}

		return s.acceptDraft(ctx, post, plan, &acceptedDraft{
			text:          text,
			backend:       primary.Name(),
			maxSimilarity: maxSim,
			hits:          hits,
			vector:        vector,
		}, fixAttempts)
	}

	// 主后端耗尽: 对兜底后端恰好尝试一次
	fallback := s.registry.Fallback()
	if fallback == nil || fallback.Name() == primary.Name() {
		return nil, s.exhausted(ctx, post, lastErr, fixAttempts)
	}

	text, genErr := fallback.Generate(ctx, buildUserPrompt(plan, fixPrompt), systemPrompt, maxTokens)
	if genErr != nil {
		// 兜底后端异常对本次调用是终结性的
		return nil, s.exhausted(ctx, post, genErr, fixAttempts)
	}

	vector, maxSim, hits, simErr := s.similaritySvc.CheckText(ctx, text)
	if simErr != nil {
		return nil, s.exhausted(ctx, post, simErr, fixAttempts)
	}

	// 兜底结果即便相似度超标也接受，只打标交给审核人重点比对
	return s.acceptDraft(ctx, post, plan, &acceptedDraft{
		text:           text,
		backend:        fallback.Name(),
		fromFallback:   true,
		maxSimilarity:  maxSim,
		hits:           hits,
		vector:         vector,
		similarityOver: maxSim > s.cfg.SimilarityThreshold,
	}, fixAttempts)
}

// pickPrimary 解析主后端: 指定了 backendHint 时覆盖配置。
func (s *generationService) pickPrimary(hint string) (dependencies.AIBackend, error) {
	if hint != "" {
		return s.registry.Get(hint)
	}
	return s.registry.Primary(), nil
}

// systemPromptFor 渲染系统提示，模板的风格倾向拼入其中。
func (s *generationService) systemPromptFor(ctx context.Context, templateID uint64) string {
	var hint string
	if templateID != 0 {
		if template, err := s.templateRepo.GetByID(ctx, templateID); err == nil {
			hint = template.PromptHint
		}
	}
	return buildSystemPrompt(hint)
}

// resolvePlan 解析本次生成使用的计划。
// 优先级: 显式覆盖 > 上一修订记录的参数（按同样的意图重试）> 帖子冗余维度列 > 重新构建。
func (s *generationService) resolvePlan(ctx context.Context, post *entities.Post, opts *dto.GenerateOptions) (*dto.Plan, error) {
	if opts.PlanOverride != nil {
		return opts.PlanOverride, nil
	}

	if latest, err := s.revisionRepo.GetLatestRevision(ctx, post.ID); err == nil {
		return s.planFromParams(ctx, &latest.Params), nil
	}

	if post.ModuleCode != "" && post.ModuleCode != fixedTextBackendID {
		params := GenerationParamsFromPost(post)
		return s.planFromParams(ctx, params), nil
	}

	return s.planSvc.BuildPlan(ctx)
}

// GenerationParamsFromPost 从帖子的冗余维度列还原生成参数。
func GenerationParamsFromPost(post *entities.Post) *entities.GenerationParams {
	return &entities.GenerationParams{
		ModuleCode:   post.ModuleCode,
		ScenarioCode: post.ScenarioCode.String,
		OutletCode:   post.OutletCode,
		ToneCode:     post.ToneCode,
		EndingCode:   post.EndingCode,
		LengthCode:   post.LengthCode,
		MinChars:     post.MinChars,
		MaxChars:     post.MaxChars,
	}
}

// planFromParams 把参数快照还原成完整计划，人类可读名从目录反查，查不到时退用 code。
func (s *generationService) planFromParams(ctx context.Context, params *entities.GenerationParams) *dto.Plan {
	names := make(map[string]string)
	if options, err := s.optionRepo.ListAll(ctx); err == nil {
		for _, option := range options {
			names[string(option.DimensionType)+":"+option.Code] = option.Name
		}
	}
	lookup := func(dim enums.DimensionType, code string) dto.PlanOption {
		if name, ok := names[string(dim)+":"+code]; ok {
			return dto.PlanOption{Code: code, Name: name}
		}
		return dto.PlanOption{Code: code, Name: code}
	}

	plan := &dto.Plan{
		Module:   lookup(enums.DimensionModule, params.ModuleCode),
		Outlet:   lookup(enums.DimensionOutlet, params.OutletCode),
		Tone:     lookup(enums.DimensionTone, params.ToneCode),
		Ending:   lookup(enums.DimensionEnding, params.EndingCode),
		Length:   lookup(enums.DimensionLength, params.LengthCode),
		MinChars: params.MinChars,
		MaxChars: params.MaxChars,
	}
	if params.ScenarioCode != "" {
		scenario := lookup(enums.DimensionScenario, params.ScenarioCode)
		plan.Scenario = &scenario
	}
	return plan
}

// acceptDraft 落地一份被接受的草稿: 事务内创建修订、迁移状态、写入向量，
// 提交后发出审核请求。
func (s *generationService) acceptDraft(ctx context.Context, post *entities.Post, plan *dto.Plan, draft *acceptedDraft, fixAttempts int) (*dto.GenerateResult, error) {
	params := entities.GenerationParams{MaxTokens: s.cfg.MaxTokens}
	if plan != nil {
		params = entities.GenerationParams{
			ModuleCode:   plan.Module.Code,
			ScenarioCode: plan.ScenarioCode(),
			OutletCode:   plan.Outlet.Code,
			ToneCode:     plan.Tone.Code,
			EndingCode:   plan.Ending.Code,
			LengthCode:   plan.Length.Code,
			MinChars:     plan.MinChars,
			MaxChars:     plan.MaxChars,
			MaxTokens:    s.cfg.MaxTokens,
		}
	}

	revision := &entities.PostRevision{
		PostID:         post.ID,
		Content:        draft.text,
		Backend:        draft.backend,
		FromFallback:   draft.fromFallback,
		SimilarityMax:  draft.maxSimilarity,
		SimilarityHits: draft.hits,
		Params:         params,
	}

	// 相似度超标的兜底结果进 ACTION_REQUIRED，其余进 PENDING_REVIEW。
	// 相似度打标不属于错误，不写错误表面。
	target := enums.StatusPendingReview
	if draft.similarityOver {
		target = enums.StatusActionRequired
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.revisionRepo.CreateNextRevision(ctx, tx, revision); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if fixAttempts > 0 {
			updates["retry_count"] = gorm.Expr("retry_count + ?", fixAttempts)
		}
		if err := s.postRepo.TransitionStatus(ctx, tx, post.ID, enums.StatusGenerating, target, updates); err != nil {
			return err
		}

		if len(draft.vector) > 0 {
			// 再生成会重复命中同一帖子，向量行按 post_id 覆盖更新
			return s.embeddingRepo.Upsert(ctx, tx, &entities.PostEmbedding{
				PostID:  post.ID,
				Backend: s.similaritySvc.EmbedderName(),
				Dim:     len(draft.vector),
				Vector:  draft.vector,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("落地草稿失败: %w", err)
	}

	if reviewErr := s.reviewSvc.RequestReview(ctx, post.ID, revision.ID, draft.text, draft.similarityOver, draft.maxSimilarity); reviewErr != nil {
		s.logger.Error("发出审核请求失败", zap.Uint64("postID", post.ID), zap.Error(reviewErr))
	}

	s.logger.Info("草稿已接受",
		zap.Uint64("postID", post.ID),
		zap.Int("revisionNo", revision.RevisionNo),
		zap.String("backend", draft.backend),
		zap.Bool("fromFallback", draft.fromFallback),
		zap.Float64("maxSimilarity", draft.maxSimilarity),
		zap.Bool("similarityOver", draft.similarityOver),
	)

	return &dto.GenerateResult{
		Text:           draft.text,
		BackendUsed:    draft.backend,
		FromFallback:   draft.fromFallback,
		MaxSimilarity:  draft.maxSimilarity,
		SimilarityOver: draft.similarityOver,
		RevisionID:     revision.ID,
		RevisionNo:     revision.RevisionNo,
	}, nil
}

// escalateValidation 修正重试预算耗尽: 保留最后一稿供人工修订，帖子升级 ACTION_REQUIRED。
func (s *generationService) escalateValidation(ctx context.Context, post *entities.Post, plan *dto.Plan, text, backend string, checkResult *CheckResult, fixAttempts int) (*dto.GenerateResult, error) {
	revision := &entities.PostRevision{
		PostID:  post.ID,
		Content: text,
		Backend: backend,
		Params: entities.GenerationParams{
			ModuleCode:   plan.Module.Code,
			ScenarioCode: plan.ScenarioCode(),
			OutletCode:   plan.Outlet.Code,
			ToneCode:     plan.Tone.Code,
			EndingCode:   plan.Ending.Code,
			LengthCode:   plan.Length.Code,
			MinChars:     plan.MinChars,
			MaxChars:     plan.MaxChars,
			MaxTokens:    s.cfg.MaxTokens,
		},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.revisionRepo.CreateNextRevision(ctx, tx, revision); err != nil {
			return err
		}
		updates := map[string]interface{}{
			"retry_count":        gorm.Expr("retry_count + ?", fixAttempts+1),
			"last_error_code":    errCodeValidationFailed,
			"last_error_message": truncateError(strings.Join(checkResult.Issues, "; ")),
		}
		return s.postRepo.TransitionStatus(ctx, tx, post.ID, enums.StatusGenerating, enums.StatusActionRequired, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("校验升级落地失败: %w", err)
	}

	s.logger.Warn("修正重试预算耗尽，帖子升级 ACTION_REQUIRED",
		zap.Uint64("postID", post.ID),
		zap.Strings("riskFlags", checkResult.RiskFlags),
	)
	return &dto.GenerateResult{
		Text:        text,
		BackendUsed: backend,
		RevisionID:  revision.ID,
		RevisionNo:  revision.RevisionNo,
	}, nil
}

// exhausted 全部后端路径失败: 记录最近错误，帖子升级 ACTION_REQUIRED。
func (s *generationService) exhausted(ctx context.Context, post *entities.Post, lastErr error, fixAttempts int) error {
	message := "生成失败"
	if lastErr != nil {
		message = lastErr.Error()
	}

	updates := map[string]interface{}{
		"last_error_code":    errCodeBackendsExhausted,
		"last_error_message": truncateError(message),
	}
	if fixAttempts > 0 {
		updates["retry_count"] = gorm.Expr("retry_count + ?", fixAttempts)
	}
	if err := s.postRepo.TransitionStatus(ctx, s.db, post.ID, enums.StatusGenerating, enums.StatusActionRequired, updates); err != nil {
		s.logger.Error("记录生成失败状态时出错", zap.Uint64("postID", post.ID), zap.Error(err))
	}

	s.logger.Error("全部后端路径耗尽",
		zap.Uint64("postID", post.ID),
		zap.String("lastError", message),
	)
	return fmt.Errorf("%w: %s", myErrors.ErrAllBackendsExhausted, message)
}

// truncateError 把错误信息截断到错误表面列宽以内。
// 列宽按字符数计，按字节切会把多字节字符拦腰斩断。
func truncateError(message string) string {
	const maxChars = 512
	runes := []rune(message)
	if len(runes) <= maxChars {
		return message
	}
	return string(runes[:maxChars])
}
