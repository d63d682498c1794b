package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"drill-talk/internal/config"
	"drill-talk/internal/course"
	"drill-talk/internal/filter"
	"drill-talk/internal/llm"
	"drill-talk/internal/model"
	"drill-talk/internal/nlu"
	"drill-talk/internal/score"
	"drill-talk/internal/session"
)

const (
	startPhrase = "开始训练"
	stopPhrase  = "结束训练"
)

// Messenger 是编排器向外发消息的出口，由网关实现。
type Messenger interface {
	SendToTrainee(traineeID, text string) error
	NotifyDirectors(text string)
}

// Orchestrator 驱动训练会话的状态机。
//
// 职责与契约：
// - 单入口：学员的每条消息都经 OnMessage 处理，状态迁移集中在这里裁决。
// - 同一学员的消息严格串行（store 的学员级锁），不同学员并发互不阻塞。
// - 可恢复的故障（生成失败、复读、分类服务抖动）在此消化，不会传到网关。
type Orchestrator struct {
	registry   *course.Registry
	gfw        *filter.Filter
	classifier nlu.Classifier
	sim        nlu.Similarity
	gen        llm.Client
	store      *session.Store
	board      *score.Leaderboard
	records    *score.RecordStore
	messenger  Messenger
	cfg        config.TrainingConfig
	// attemptTimeout 单次生成调用的超时，超时按一次失败尝试计。
	attemptTimeout time.Duration
	now            func() time.Time
}

func New(
	registry *course.Registry,
	gfw *filter.Filter,
	classifier nlu.Classifier,
	sim nlu.Similarity,
	gen llm.Client,
	store *session.Store,
	board *score.Leaderboard,
	records *score.RecordStore,
	messenger Messenger,
	cfg config.TrainingConfig,
	attemptTimeout time.Duration,
	now func() time.Time,
) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	if attemptTimeout == 0 {
		attemptTimeout = 30 * time.Second
	}
	return &Orchestrator{
		registry:       registry,
		gfw:            gfw,
		classifier:     classifier,
		sim:            sim,
		gen:            gen,
		store:          store,
		board:          board,
		records:        records,
		messenger:      messenger,
		cfg:            cfg,
		attemptTimeout: attemptTimeout,
		now:            now,
	}
}

// OnMessage 处理学员的一条入站消息。
// 网关可以在任意 goroutine 上调用；学员级锁保证同一学员的回合不交错。
func (o *Orchestrator) OnMessage(ctx context.Context, traineeID, displayName, text string) {
	o.store.Lock(traineeID)
	defer o.store.Unlock(traineeID)

	sess, err := o.store.Get(traineeID)
	if err != nil {
		// 无会话：只响应开始指令，其余一律给提示。
		if strings.Contains(text, startPhrase) {
			o.startSession(traineeID, displayName)
		} else {
			o.send(traineeID, "如需对话情景模拟训练请回复："+startPhrase)
		}
		return
	}

	// 结束指令优先于一切状态：学员随时可以主动放弃，结果不计。
	if strings.Contains(text, stopPhrase) {
		log.Printf("[Orchestrator] %s 主动结束了训练，该次训练记录不计成绩", displayName)
		o.terminate(sess, model.OutcomeStopped)
		o.send(traineeID, "训练结束，结果未记录，如需重新开始，请回复："+startPhrase)
		return
	}

	// 训练中再次收到开始指令：按配置替换或拒绝。
	if strings.Contains(text, startPhrase) {
		if o.cfg.ReplaceActive {
			log.Printf("[Orchestrator] %s 重新开始训练，旧会话废弃", displayName)
			o.terminate(sess, model.OutcomeStopped)
			o.startSession(traineeID, displayName)
		} else {
			o.send(traineeID, "您有一场训练正在进行，请先发送："+stopPhrase)
		}
		return
	}

	switch sess.Status {
	case model.StatusAwaitingCourse:
		o.selectCourse(sess, text)
	case model.StatusActive:
		o.runTurn(ctx, sess, text)
	}
}

// startSession 创建会话并发送课程菜单。
func (o *Orchestrator) startSession(traineeID, displayName string) {
	if _, err := o.store.Create(traineeID, displayName); err != nil {
		if !errors.Is(err, session.ErrAlreadyActive) {
			log.Printf("[Orchestrator] create session for %s: %v", traineeID, err)
			return
		}
		// 到这里说明旧会话没清干净，直接重建。
		o.store.Replace(traineeID, displayName)
	}

	menu := strings.Join(o.registry.Keys(), "\n")
	o.send(traineeID, "欢迎使用AI虚拟情景培训，目前已有课程如下：\n"+menu+"\n请直接回复课程名称开始")
}

// selectCourse 处理待选课状态下的消息：课程名子串匹配。
func (o *Orchestrator) selectCourse(sess *model.Session, text string) {
	c, ok := o.registry.Match(text)
	if !ok {
		o.send(sess.TraineeID, "请先选择课程，如需结束或重新开始，请回复："+stopPhrase)
		return
	}

	sess.Course = c.Key
	sess.Status = model.StatusActive
	// 开场白入 log，后续复读检查与成绩单都依赖它。
	sess.Log = append(sess.Log, model.Turn{Role: model.RoleAI, Text: c.Opening, TS: o.now()})

	log.Printf("[Orchestrator] %s 开始了训练，课程：%s", sess.DisplayName, c.Key)
	o.send(sess.TraineeID, "情景对话模拟训练已开始。\n"+c.Intro)
	o.send(sess.TraineeID, "提醒：对话中有时我会故意沉默，您可以继续说，不必等待。期间如果您想结束或重新开始训练，请发送："+stopPhrase)
	o.send(sess.TraineeID, c.Opening)
}

// terminate 结束会话：落盘一条终止记录（恰好一次），按策略计排名，移除会话。
// 返回百分位（不参与排名或样本不足时为 0）。
func (o *Orchestrator) terminate(sess *model.Session, outcome model.Outcome) int {
	rec := &model.TerminationRecord{
		When:        o.now(),
		TraineeName: sess.DisplayName,
		Course:      sess.Course,
		TurnCount:   sess.TurnCount,
		Outcome:     outcome,
		Transcript:  renderTranscript(sess, o.now()),
	}

	if outcome.Scored() {
		o.board.Record(sess.Course, sess.TurnCount, sess.DisplayName)
		if rank := o.board.Rank(sess.Course, sess.TurnCount, sess.DisplayName); rank > 0 {
			rec.Percentile = score.Percentile(rank, o.board.Size(sess.Course))
		}
	}

	if err := o.records.Save(rec); err != nil {
		// 记录写失败不影响会话终止，但必须留痕。
		log.Printf("[Orchestrator] save termination record for %s: %v", sess.DisplayName, err)
	}

	sess.Status = model.StatusTerminated
	o.store.Delete(sess.TraineeID)
	return rec.Percentile
}

func (o *Orchestrator) send(traineeID, text string) {
	if err := o.messenger.SendToTrainee(traineeID, text); err != nil {
		log.Printf("[Orchestrator] send to %s: %v", traineeID, err)
	}
}

// renderTranscript 把会话渲染成归档文本，格式沿用人工复盘习惯。
func renderTranscript(sess *model.Session, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "测试时间：%s\n", now.Format("200601021504"))
	fmt.Fprintf(&b, "测试人：%s\n", sess.DisplayName)
	fmt.Fprintf(&b, "测试情景：%s\n", sess.Course)
	fmt.Fprintf(&b, "成绩（轮次）：%d\n", sess.TurnCount)
	b.WriteString("----------------------\n")
	for _, turn := range sess.Log {
		switch turn.Role {
		case model.RoleAI:
			fmt.Fprintf(&b, "AI说：“%s”\n", turn.Text)
		default:
			fmt.Fprintf(&b, "测试人员说：“%s”\n", turn.Text)
		}
	}
	return b.String()
}
