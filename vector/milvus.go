// Package vector 提供 core.VectorStore 的 Milvus 实现。
//
// 商品向量集合由离线链路构建与维护，这里只读：
// 向量检索（SearchByVector）和按商品 ID 点查（LookupByIDs）。
package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/rushteam/shoprec/core"
)

// MilvusStore 是 Milvus 向量数据库的 core.VectorStore 实现。
type MilvusStore struct {
	Address    string
	Username   string
	Password   string
	Database   string
	Collection string

	// IDField / VectorField 集合内的字段名
	IDField     string
	VectorField string

	// Ef HNSW 检索参数
	Ef int

	// Timeout 单次调用超时（秒）
	Timeout int

	client *milvusclient.Client
}

type MilvusOption func(*MilvusStore)

func WithMilvusAuth(username, password string) MilvusOption {
	return func(s *MilvusStore) {
		s.Username = username
		s.Password = password
	}
}

func WithMilvusDatabase(database string) MilvusOption {
	return func(s *MilvusStore) {
		s.Database = database
	}
}

func WithMilvusTimeout(timeout int) MilvusOption {
	return func(s *MilvusStore) {
		s.Timeout = timeout
	}
}

func WithMilvusFields(idField, vectorField string) MilvusOption {
	return func(s *MilvusStore) {
		s.IDField = idField
		s.VectorField = vectorField
	}
}

func WithMilvusEf(ef int) MilvusOption {
	return func(s *MilvusStore) {
		s.Ef = ef
	}
}

// NewMilvusStore 创建 Milvus 向量索引客户端并建立连接。
func NewMilvusStore(address, collection string, opts ...MilvusOption) (*MilvusStore, error) {
	store := &MilvusStore{
		Address:     address,
		Collection:  collection,
		Database:    "default",
		IDField:     "product_id",
		VectorField: "vector",
		Ef:          64,
		Timeout:     30,
	}
	for _, opt := range opts {
		opt(store)
	}

	ctx := context.Background()
	config := &milvusclient.ClientConfig{
		Address:  store.Address,
		Username: store.Username,
		Password: store.Password,
		DBName:   store.Database,
	}

	client, err := milvusclient.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create milvus client: %w", err)
	}

	store.client = client
	return store, nil
}

// SearchByVector 按余弦相似度检索 topK 个最相似商品。
// 集合索引以 COSINE 度量构建，分数即余弦相似度。
func (s *MilvusStore) SearchByVector(
	ctx context.Context,
	vector []float64,
	topK int,
	filter *core.SearchFilter,
) ([]core.VectorHit, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 10
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	searchOption := milvusclient.NewSearchOption(
		s.Collection,
		topK,
		[]entity.Vector{entity.FloatVector(convertToFloat32(vector))},
	).WithOutputFields(s.IDField)

	if filter != nil && len(filter.RestrictIDs) > 0 {
		searchOption = searchOption.WithFilter(s.inExpr(filter.RestrictIDs))
	}

	if s.Ef > 0 {
		annParam := index.NewCustomAnnParam()
		annParam.WithExtraParam("ef", s.Ef)
		searchOption = searchOption.WithAnnParam(annParam)
	}

	searchResults, err := s.client.Search(ctx, searchOption)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	hits := make([]core.VectorHit, 0, topK)
	for _, resultSet := range searchResults {
		if resultSet.Err != nil {
			continue
		}
		for i := 0; i < resultSet.Len(); i++ {
			id, err := resultSet.IDs.Get(i)
			if err != nil {
				continue
			}
			productID, ok := id.(int64)
			if !ok {
				continue
			}
			hit := core.VectorHit{ProductID: productID}
			if i < len(resultSet.Scores) {
				hit.Score = float64(resultSet.Scores[i])
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// LookupByIDs 按商品 ID 批量点查向量，不存在的 ID 不出现在结果中。
func (s *MilvusStore) LookupByIDs(ctx context.Context, ids []int64) (map[int64][]float64, error) {
	if len(ids) == 0 {
		return map[int64][]float64{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	queryOption := milvusclient.NewQueryOption(s.Collection).
		WithFilter(s.inExpr(ids)).
		WithOutputFields(s.IDField, s.VectorField)

	resultSet, err := s.client.Query(ctx, queryOption)
	if err != nil {
		return nil, fmt.Errorf("milvus query failed: %w", err)
	}

	idColumn, ok := resultSet.GetColumn(s.IDField).(*column.ColumnInt64)
	if !ok {
		return nil, fmt.Errorf("milvus query: field %s is not int64", s.IDField)
	}
	vectorColumn, ok := resultSet.GetColumn(s.VectorField).(*column.ColumnFloatVector)
	if !ok {
		return nil, fmt.Errorf("milvus query: field %s is not float vector", s.VectorField)
	}

	productIDs := idColumn.Data()
	vectors := vectorColumn.Data()

	out := make(map[int64][]float64, len(productIDs))
	for i, id := range productIDs {
		if i >= len(vectors) {
			break
		}
		out[id] = convertToFloat64(vectors[i])
	}
	return out, nil
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close() error {
	if s.client != nil {
		ctx := context.Background()
		return s.client.Close(ctx)
	}
	return nil
}

func (s *MilvusStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(s.Timeout)*time.Second)
}

// inExpr 生成 `product_id in [1,2,3]` 形式的过滤表达式。
func (s *MilvusStore) inExpr(ids []int64) string {
	var b strings.Builder
	b.WriteString(s.IDField)
	b.WriteString(" in [")
	for i, id := range ids {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteString("]")
	return b.String()
}

func convertToFloat32(vec []float64) []float32 {
	result := make([]float32, len(vec))
	for i, v := range vec {
		result[i] = float32(v)
	}
	return result
}

func convertToFloat64(vec []float32) []float64 {
	result := make([]float64, len(vec))
	for i, v := range vec {
		result[i] = float64(v)
	}
	return result
}

var _ core.VectorStore = (*MilvusStore)(nil)
