package orchestrator

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"drill-talk/internal/model"
	"drill-talk/internal/nlu"
)

// runTurn 执行一个对话回合：安全闸 → 情绪闸 → 生成（带重试与复读抑制）→ 裁决。
// 可恢复的故障都在这里吞掉，最坏情况是本回合沉默，会话保持 ACTIVE。
func (o *Orchestrator) runTurn(ctx context.Context, sess *model.Session, text string) {
	text = normalize(text)

	// 1. 安全闸：命中敏感词立即判负，不计成绩，通报导演。
	if term := o.gfw.Filter(text); term != "" {
		sess.Log = append(sess.Log, model.Turn{Role: model.RoleTrainee, Text: text, TS: o.now()})
		log.Printf("[Orchestrator] 测试人员：%s 因发表不当言论挑战失败", sess.DisplayName)
		turns := sess.TurnCount
		o.terminate(sess, model.OutcomeFailContent)
		o.send(sess.TraineeID, fmt.Sprintf("您因发表不当言论挑战失败，对话轮次：%d", turns))
		o.messenger.NotifyDirectors(fmt.Sprintf("测试人员：%s 因发表不当言论挑战失败，敏感词：%s，对话轮次：%d", sess.DisplayName, term, turns))
		return
	}

	// 2. 情绪闸：学员自己失态也判负。
	label, conf, err := o.classifier.Classify(ctx, text)
	if err != nil {
		// 分类服务抖动不终止会话，按中性意图继续。
		log.Printf("[Orchestrator] classify trainee text: %v", err)
		label = ""
	}

	if label == nlu.LabelContinue {
		// 本句意思不完全，记入上下文等下一句，不回复。
		sess.Log = append(sess.Log, model.Turn{Role: model.RoleTrainee, Text: text, TS: o.now()})
		return
	}

	if nlu.TraineeFailLabels[label] {
		log.Printf("[Orchestrator] 测试人员：%s 因未合理控制情绪挑战失败，情绪侦测：%s（%.2f）", sess.DisplayName, label, conf)
		turns := sess.TurnCount
		o.terminate(sess, model.OutcomeFailEmotion)
		o.send(sess.TraineeID, fmt.Sprintf("侦测到您未合理控制谈话情绪，本次挑战失败，对话轮次：%d", turns))
		o.messenger.NotifyDirectors(fmt.Sprintf("测试人员：%s 因未合理控制情绪挑战失败，情绪侦测：%s，对话轮次：%d", sess.DisplayName, label, turns))
		return
	}

	sess.Log = append(sess.Log, model.Turn{Role: model.RoleTrainee, Text: text, TS: o.now()})

	// 3. 生成回复。全部尝试失败时本回合沉默，下一条消息重来。
	reply, ok := o.generateReply(ctx, sess)
	if !ok {
		log.Printf("[Orchestrator] generation exhausted for %s, dropping this turn", sess.DisplayName)
		return
	}

	sess.Log = append(sess.Log, model.Turn{Role: model.RoleAI, Text: reply, TS: o.now()})
	sess.TurnCount++
	o.send(sess.TraineeID, reply)

	// 4. 按 AI 角色的收尾情绪裁决本回合。
	o.judgeReply(ctx, sess, reply)
}

// generateReply 调用生成服务，带重试与复读抑制。
// 拒绝条件：服务失败、过短、与近期 AI 轮次过于相似。
func (o *Orchestrator) generateReply(ctx context.Context, sess *model.Session) (string, bool) {
	c, ok := o.registry.Get(sess.Course)
	if !ok {
		// 课表热更后课程可能消失，本回合只能放弃。
		log.Printf("[Orchestrator] course %q no longer in registry", sess.Course)
		return "", false
	}

	prompt := c.Prompt + contextWindow(sess.Log, o.cfg.ContextBudget) + aiCue

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		genCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
		reply, err := o.gen.Generate(genCtx, prompt)
		cancel()
		if err != nil {
			log.Printf("[Orchestrator] generation failed %d times: %v", attempt, err)
			continue
		}

		if utf8.RuneCountInString(reply) < o.cfg.MinReplyChars {
			log.Printf("[Orchestrator] reply too short, retrying: %q", reply)
			continue
		}

		repeated, err := o.isRepeat(ctx, sess, reply)
		if err != nil {
			log.Printf("[Orchestrator] similarity check failed: %v", err)
			continue
		}
		if repeated {
			log.Printf("[Orchestrator] repeat generation: %q", reply)
			// 收窄提示词到最后一轮，迫使生成偏离已有内容。
			prompt = c.Prompt + formatTurn(sess.Log[len(sess.Log)-1]) + aiCue
			continue
		}

		return reply, true
	}

	return "", false
}

// isRepeat 检查候选回复是否复读了近期的 AI 轮次。
func (o *Orchestrator) isRepeat(ctx context.Context, sess *model.Session, reply string) (bool, error) {
	checked := 0
	for i := len(sess.Log) - 1; i >= 0 && checked < o.cfg.RepeatWindow; i-- {
		turn := sess.Log[i]
		if turn.Role != model.RoleAI {
			continue
		}
		checked++

		sim, err := o.sim.Score(ctx, reply, turn.Text)
		if err != nil {
			return false, err
		}
		if sim >= o.cfg.SimilarityThreshold {
			return true, nil
		}
	}
	return false, nil
}

// judgeReply 根据 AI 回复的情绪决定会话走向。
func (o *Orchestrator) judgeReply(ctx context.Context, sess *model.Session, reply string) {
	label, _, err := o.classifier.Classify(ctx, reply)
	if err != nil {
		// 裁决失败就当普通回合，下一轮再看。
		log.Printf("[Orchestrator] classify AI reply: %v", err)
		return
	}

	switch {
	case nlu.AIPraiseLabels[label]:
		log.Printf("[Orchestrator] 测试人员：%s 完美通过测试，AI角色最终情绪：%s", sess.DisplayName, label)
		turns := sess.TurnCount
		percentile := o.terminate(sess, model.OutcomePassExcellent)
		msg := fmt.Sprintf("恭喜您，完美应付此场景！对话轮次：%d", turns)
		if percentile > 0 {
			msg += fmt.Sprintf("，成绩超过了 %d%% 的历史学员", percentile)
		}
		o.send(sess.TraineeID, msg)
		o.messenger.NotifyDirectors(fmt.Sprintf("测试人员：%s 完美通过测试，AI角色最终情绪：%s，对话轮次：%d", sess.DisplayName, label, turns))

	case nlu.AIPassLabels[label]:
		log.Printf("[Orchestrator] 测试人员：%s 通过测试，AI角色最终情绪：%s", sess.DisplayName, label)
		turns := sess.TurnCount
		percentile := o.terminate(sess, model.OutcomePass)
		msg := fmt.Sprintf("恭喜您，通过测试，对话轮次：%d", turns)
		if percentile > 0 {
			msg += fmt.Sprintf("，成绩超过了 %d%% 的历史学员", percentile)
		}
		o.send(sess.TraineeID, msg)
		o.messenger.NotifyDirectors(fmt.Sprintf("测试人员：%s 通过测试，AI角色最终情绪：%s，对话轮次：%d", sess.DisplayName, label, turns))

	case nlu.AIEscalateLabels[label]:
		sess.FailCount++
		if sess.FailCount > o.cfg.FailThreshold {
			log.Printf("[Orchestrator] 虚拟角色情绪激动次数超过%d次，测试人员：%s 挑战失败", o.cfg.FailThreshold, sess.DisplayName)
			turns := sess.TurnCount
			o.terminate(sess, model.OutcomeFailEscalation)
			o.send(sess.TraineeID, fmt.Sprintf("虚拟角色情绪激动次数超过%d次，本次挑战失败，对话轮次：%d", o.cfg.FailThreshold, turns))
			o.messenger.NotifyDirectors(fmt.Sprintf("虚拟角色情绪激动次数超过%d次，本次挑战失败，测试人员：%s，对话轮次：%d", o.cfg.FailThreshold, sess.DisplayName, turns))
		}
	}
}
