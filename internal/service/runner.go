package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	"github.com/telnetscriptpro/telnetscriptpro/internal/config"
	"github.com/telnetscriptpro/telnetscriptpro/internal/database"
	"github.com/telnetscriptpro/telnetscriptpro/internal/model"
	"github.com/telnetscriptpro/telnetscriptpro/pkg/logger"
	"github.com/telnetscriptpro/telnetscriptpro/pkg/sshstream"
	"github.com/telnetscriptpro/telnetscriptpro/pkg/telnet"
)

// RunnerService 脚本任务执行服务。单个会话严格串行，服务层只在
// 相互独立的任务之间并发，用信号量限制同时运行的会话数
type RunnerService struct {
	cfg     *config.Config
	sem     *semaphore.Weighted
	archive StorageWriter
}

// NewRunnerService 创建执行服务
func NewRunnerService(cfg *config.Config) *RunnerService {
	concurrent := cfg.Runner.Concurrent
	if concurrent <= 0 {
		concurrent = 8
	}
	return &RunnerService{
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(concurrent)),
		archive: NewStorageWriter(cfg),
	}
}

// Execute 同步执行一个脚本请求：建任务记录→驱动会话→落库→归档
func (r *RunnerService) Execute(ctx context.Context, req *ScriptRequest) (*model.ScriptTask, []string, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("failed to acquire runner slot: %w", err)
	}
	defer r.sem.Release(1)

	task := r.newTask(req)
	r.saveTask(task)
	r.logTask(task.ID, "info", fmt.Sprintf("task started against %s:%d", task.Host, task.Port))

	results, runErr := r.runScript(req)

	task.EndTime = time.Now()
	task.Duration = task.EndTime.Sub(task.StartTime).Milliseconds()
	if b, err := json.Marshal(results); err == nil {
		task.Results = string(b)
	}
	if runErr != nil {
		task.Status = model.TaskStatusFailed
		task.ErrorMsg = runErr.Error()
		r.logTask(task.ID, "error", runErr.Error())
	} else {
		task.Status = model.TaskStatusSuccess
		r.logTask(task.ID, "info", fmt.Sprintf("task finished with %d responses", len(results)))
	}
	r.saveTask(task)

	if len(results) > 0 {
		r.archiveResults(ctx, task, results)
	}

	return task, results, runErr
}

// Submit 异步提交：立即返回任务ID，后台执行
func (r *RunnerService) Submit(req *ScriptRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	task := r.newTask(req)
	r.saveTask(task)

	go func() {
		// 后台任务不继承请求上下文，只受会话自身的超时约束
		if err := r.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer r.sem.Release(1)

		r.logTask(task.ID, "info", "background task started")
		results, runErr := r.runScript(req)

		task.EndTime = time.Now()
		task.Duration = task.EndTime.Sub(task.StartTime).Milliseconds()
		if b, err := json.Marshal(results); err == nil {
			task.Results = string(b)
		}
		if runErr != nil {
			task.Status = model.TaskStatusFailed
			task.ErrorMsg = runErr.Error()
			r.logTask(task.ID, "error", runErr.Error())
		} else {
			task.Status = model.TaskStatusSuccess
		}
		r.saveTask(task)

		if len(results) > 0 {
			r.archiveResults(context.Background(), task, results)
		}
	}()

	return task.ID, nil
}

// GetTask 查询任务记录
func (r *RunnerService) GetTask(taskID string) (*model.ScriptTask, error) {
	var task model.ScriptTask
	if err := database.GetDB().Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// runScript 装配并运行一次完整的脚本会话
func (r *RunnerService) runScript(req *ScriptRequest) ([]string, error) {
	cfg := &telnet.Config{
		Host:           req.Host,
		Port:           req.Port,
		ConnectTimeout: r.cfg.Telnet.ConnectTimeout,
		Charset:        req.Charset,
		Debug:          r.cfg.Telnet.Debug,
	}
	if cfg.Port == 0 {
		cfg.Port = r.cfg.Telnet.Port
	}
	if cfg.Charset == "" {
		cfg.Charset = r.cfg.Telnet.Charset
	}

	builder := telnet.NewScriptBuilder(cfg)

	if strings.EqualFold(req.Protocol, "ssh") {
		// SSH 的认证发生在传输建立阶段，凭据交给拨号方，
		// 不再走两段提示符的登录流程
		builder.WithDialer(sshstream.Dialer(&sshstream.ConnectionInfo{
			Username: req.Login.Username,
			Password: req.Login.Password,
		}))
	} else if req.Login != nil {
		builder.WithLogin(*req.Login)
	}

	for _, spec := range req.Steps {
		builder.AddStep(spec.ToStep())
	}

	return builder.Run()
}

func (r *RunnerService) newTask(req *ScriptRequest) *model.ScriptTask {
	proto := strings.ToLower(strings.TrimSpace(req.Protocol))
	if proto == "" {
		proto = "telnet"
	}
	port := req.Port
	if port == 0 {
		port = r.cfg.Telnet.Port
	}
	return &model.ScriptTask{
		ID:        fmt.Sprintf("task_%d", time.Now().UnixNano()),
		Host:      req.Host,
		Port:      port,
		Protocol:  proto,
		Charset:   req.Charset,
		Steps:     req.StepsJSON(),
		Status:    model.TaskStatusRunning,
		StartTime: time.Now(),
	}
}

func (r *RunnerService) saveTask(task *model.ScriptTask) {
	err := database.WithRetry(func(db *gorm.DB) error {
		return db.Save(task).Error
	}, 3, 50*time.Millisecond)
	if err != nil {
		logger.Error("failed to save task ", task.ID, ": ", err)
	}
}

func (r *RunnerService) logTask(taskID, level, message string) {
	entry := &model.TaskLog{
		ID:      fmt.Sprintf("log_%d", time.Now().UnixNano()),
		TaskID:  taskID,
		Level:   level,
		Message: message,
	}
	err := database.WithRetry(func(db *gorm.DB) error {
		return db.Create(entry).Error
	}, 3, 50*time.Millisecond)
	if err != nil {
		logger.Warn("failed to write task log: ", err)
	}
}

// archiveResults 把全部响应聚合成一个归档文件
func (r *RunnerService) archiveResults(ctx context.Context, task *model.ScriptTask, results []string) {
	var sb strings.Builder
	for i, res := range results {
		fmt.Fprintf(&sb, "===== step %d =====\n%s\n", i+1, res)
	}
	location, err := r.archive.Write(ctx, ArchiveMeta{TaskID: task.ID, Host: task.Host}, sb.String())
	if err != nil {
		logger.Warn("failed to archive task output: ", err)
		return
	}
	logger.Info("task output archived to ", location)
}
