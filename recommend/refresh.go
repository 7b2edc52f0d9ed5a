package recommend

import (
	"context"
	"time"
)

// RefreshUserVector 主动重算并回写一个用户的向量缓存（后台预热用）。
//
// 与请求路径上的被动计算不同，这是显式运维/离线操作，错误如实返回。
// 信号不足以生成向量时静默跳过：旧缓存留给 TTL 自然过期，
// 需要立刻失效时用 VectorCache.DeleteUserVector。
func (e *Engine) RefreshUserVector(ctx context.Context, userID int64) error {
	sig := e.gatherSignals(ctx, userID)

	// 与请求路径同一充分性门槛，避免刷出请求路径不会生成的向量
	if !e.sufficient(sig) {
		return nil
	}

	vector, ok := e.fusion.ComputeUserVector(ctx, sig.interests, sig.grouped, sig.keywords)
	if !ok {
		return nil
	}
	return e.cache.SetUserVector(ctx, userID, vector, e.cfg.VectorCacheTTL)
}

// RefreshLoop 周期性刷新一批用户的向量缓存，直到 ctx 取消。
// listUserIDs 每轮调用一次，返回本轮要刷新的用户（通常是活跃用户）。
// 单个用户刷新失败只记日志，不中断本轮和后续轮次。
func (e *Engine) RefreshLoop(
	ctx context.Context,
	interval time.Duration,
	listUserIDs func(ctx context.Context) ([]int64, error),
) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			userIDs, err := listUserIDs(ctx)
			if err != nil {
				e.logger.Warn().Err(err).Msg("list users for refresh failed")
				continue
			}
			for _, userID := range userIDs {
				if ctx.Err() != nil {
					return
				}
				if err := e.RefreshUserVector(ctx, userID); err != nil {
					e.logger.Warn().Err(err).Int64("user_id", userID).Msg("refresh user vector failed")
				}
			}
			e.logger.Debug().Int("users", len(userIDs)).Msg("refresh round done")
		}
	}
}
