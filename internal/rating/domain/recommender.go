package domain

import (
	"math"
	"sort"
	"sync"
)

// Recommender 基于用户的协同过滤推荐器。
// Fit 构建不可变快照并原子替换，TopN 只读快照，两者可并发调用。
// 必须显式 Fit 之后才会产生推荐，空快照返回空结果。
type Recommender struct {
	neighbours int

	mu   sync.RWMutex
	snap *snapshot
}

// snapshot 一次 Fit 产出的只读评分矩阵
type snapshot struct {
	// customerID -> productID -> score
	matrix map[uint]map[uint]float64
}

// NewRecommender 创建推荐器；neighbours 为参与预测的最近邻数量
func NewRecommender(neighbours int) *Recommender {
	if neighbours <= 0 {
		neighbours = 5
	}
	return &Recommender{
		neighbours: neighbours,
		snap:       &snapshot{matrix: map[uint]map[uint]float64{}},
	}
}

// Fit 从全量评分重建快照
func (r *Recommender) Fit(ratings []*Rating) {
	matrix := make(map[uint]map[uint]float64)
	for _, rating := range ratings {
		row, ok := matrix[rating.CustomerID]
		if !ok {
			row = make(map[uint]float64)
			matrix[rating.CustomerID] = row
		}
		row[rating.ProductID] = float64(rating.Score)
	}

	r.mu.Lock()
	r.snap = &snapshot{matrix: matrix}
	r.mu.Unlock()
}

// TopN 为客户推荐最多 n 个未评分的商品，按预测分值降序。
// 客户没有评分记录时返回空。
func (r *Recommender) TopN(customerID uint, n int) []uint {
	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()

	own, ok := snap.matrix[customerID]
	if !ok || n <= 0 {
		return nil
	}

	type neighbour struct {
		id  uint
		sim float64
	}
	var neighbours []neighbour
	for otherID, other := range snap.matrix {
		if otherID == customerID {
			continue
		}
		sim := cosine(own, other)
		if sim > 0 {
			neighbours = append(neighbours, neighbour{id: otherID, sim: sim})
		}
	}
	sort.Slice(neighbours, func(i, j int) bool {
		if neighbours[i].sim != neighbours[j].sim {
			return neighbours[i].sim > neighbours[j].sim
		}
		return neighbours[i].id < neighbours[j].id
	})
	if len(neighbours) > r.neighbours {
		neighbours = neighbours[:r.neighbours]
	}

	// 邻居评分按相似度加权，预测客户未接触过的商品
	weighted := make(map[uint]float64)
	weights := make(map[uint]float64)
	for _, nb := range neighbours {
		for productID, score := range snap.matrix[nb.id] {
			if _, rated := own[productID]; rated {
				continue
			}
			weighted[productID] += nb.sim * score
			weights[productID] += nb.sim
		}
	}

	type prediction struct {
		productID uint
		score     float64
	}
	predictions := make([]prediction, 0, len(weighted))
	for productID, sum := range weighted {
		predictions = append(predictions, prediction{productID: productID, score: sum / weights[productID]})
	}
	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].score != predictions[j].score {
			return predictions[i].score > predictions[j].score
		}
		return predictions[i].productID < predictions[j].productID
	})

	if len(predictions) > n {
		predictions = predictions[:n]
	}
	result := make([]uint, 0, len(predictions))
	for _, p := range predictions {
		result = append(result, p.productID)
	}
	return result
}

// cosine 两个评分向量的余弦相似度，向量按共同维度对齐
func cosine(a, b map[uint]float64) float64 {
	var dot float64
	for productID, score := range a {
		if other, ok := b[productID]; ok {
			dot += score * other
		}
	}
	if dot == 0 {
		return 0
	}
	var normA, normB float64
	for _, score := range a {
		normA += score * score
	}
	for _, score := range b {
		normB += score * score
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
