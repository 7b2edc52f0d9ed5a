package recommend

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
)

// signals 是一次并发信号采集的结果。采集失败的信号保持零值，
// 由融合层按"该路缺失"处理。
type signals struct {
	interests map[string]string
	grouped   map[core.BehaviorType][]core.BehaviorRecord
	keywords  []string
	purchased map[int64]struct{}
}

// gatherSignals 并发拉取四路用户信号。
// 单路失败只降级该路，不影响其他信号，也不让采集整体失败。
func (e *Engine) gatherSignals(ctx context.Context, userID int64) *signals {
	out := &signals{}
	lookback := e.cfg.LookbackDays

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, e.cfg.PortTimeout)
		defer cancel()
		interests, err := e.signals.GetInterests(callCtx, userID)
		if err != nil {
			e.logger.Warn().Err(err).Int64("user_id", userID).Msg("get interests failed")
			return nil
		}
		out.interests = interests
		return nil
	})

	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, e.cfg.PortTimeout)
		defer cancel()
		grouped, err := e.signals.GetBehaviorsGrouped(callCtx, userID, lookback)
		if err != nil {
			e.logger.Warn().Err(err).Int64("user_id", userID).Msg("get behaviors failed")
			return nil
		}
		out.grouped = grouped
		return nil
	})

	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, e.cfg.PortTimeout)
		defer cancel()
		keywords, err := e.signals.GetSearchKeywords(callCtx, userID, lookback)
		if err != nil {
			e.logger.Warn().Err(err).Int64("user_id", userID).Msg("get search keywords failed")
			return nil
		}
		out.keywords = keywords
		return nil
	})

	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, e.cfg.PortTimeout)
		defer cancel()
		purchased, err := e.signals.GetPurchasedProductIDs(callCtx, userID, lookback)
		if err != nil {
			e.logger.Warn().Err(err).Int64("user_id", userID).Msg("get purchased products failed")
			return nil
		}
		out.purchased = purchased
		return nil
	})

	// 所有子任务都吞掉错误，Wait 只用于同步
	_ = g.Wait()
	return out
}

// purchasedBestEffort 拉取已购商品集合，失败时按空集合处理。
// 缓存命中路径只需要这一路信号，不值得做完整采集。
func (e *Engine) purchasedBestEffort(ctx context.Context, userID int64) map[int64]struct{} {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.PortTimeout)
	defer cancel()

	purchased, err := e.signals.GetPurchasedProductIDs(callCtx, userID, e.cfg.LookbackDays)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("get purchased products failed")
		return nil
	}
	return purchased
}
