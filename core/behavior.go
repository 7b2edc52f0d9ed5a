package core

import "time"

// BehaviorType 是用户行为类型。
type BehaviorType string

const (
	BehaviorView     BehaviorType = "view"
	BehaviorLike     BehaviorType = "like"
	BehaviorShare    BehaviorType = "share"
	BehaviorAddCart  BehaviorType = "add_cart"
	BehaviorPurchase BehaviorType = "purchase"
	BehaviorSearch   BehaviorType = "search"
)

// TargetType 是行为指向的实体类型。
type TargetType string

const (
	TargetProduct TargetType = "product"
	TargetReview  TargetType = "review"
	TargetOrder   TargetType = "order"
	TargetKeyword TargetType = "keyword"
)

// VectorBehaviorTypes 是参与向量计算的行为类型（按权重从高到低）。
// search 行为没有 target_id，只有 search_keyword，单独走关键词向量。
var VectorBehaviorTypes = []BehaviorType{
	BehaviorPurchase,
	BehaviorAddCart,
	BehaviorLike,
	BehaviorShare,
	BehaviorView,
}

// BehaviorRecord 是一条用户行为记录（由用户服务拥有，这里只读）。
type BehaviorRecord struct {
	UserID        int64        `json:"user_id"`
	BehaviorType  BehaviorType `json:"behavior_type"`
	TargetType    TargetType   `json:"target_type"`
	TargetID      int64        `json:"target_id,omitempty"` // 0 表示无 target_id
	SearchKeyword string       `json:"search_keyword,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ProductID 返回该行为指向的商品 ID。
// search 行为（或 target_id 缺失的脏数据）返回 (0, false)。
func (b *BehaviorRecord) ProductID() (int64, bool) {
	if b.BehaviorType == BehaviorSearch || b.TargetID <= 0 {
		return 0, false
	}
	return b.TargetID, true
}

// CountVectorBehaviors 统计分组行为中参与向量计算的行为总数，
// 用于判断是否达到个性化推荐的最少行为数。
func CountVectorBehaviors(grouped map[BehaviorType][]BehaviorRecord) int {
	n := 0
	for _, bt := range VectorBehaviorTypes {
		n += len(grouped[bt])
	}
	return n
}
