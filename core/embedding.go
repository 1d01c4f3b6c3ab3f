package core

import "math"

// Embedding 是带显式维度的内容向量。
// 取代"哪个向量字段存在就用哪个"的动态探测：物品可能同时携带原始向量与
// 降维向量，选择/适配逻辑集中在 AdaptEmbedding，失败模式有名有姓。
type Embedding struct {
	Dimension int       `json:"dimension"`
	Values    []float64 `json:"values"`
}

// NewEmbedding 由裸向量构造 Embedding。
func NewEmbedding(values []float64) Embedding {
	return Embedding{Dimension: len(values), Values: values}
}

// AdaptEmbedding 把向量适配到索引要求的维度 dim：
//   - 维度相等：原样返回
//   - 维度更大：截断前 dim 维（有损降级，接受并记录在案——理想路径是走外部降维，
//     但绝不把不同维度混进同一次加权平均）
//   - 维度更小：返回 ErrNoCompatibleEmbedding，调用方回退非个性化路径
func AdaptEmbedding(values []float64, dim int) ([]float64, error) {
	if dim <= 0 || len(values) == 0 {
		return nil, ErrNoCompatibleEmbedding
	}
	if len(values) == dim {
		return values, nil
	}
	if len(values) > dim {
		out := make([]float64, dim)
		copy(out, values[:dim])
		return out, nil
	}
	return nil, ErrNoCompatibleEmbedding
}

// CosineSimilarity 计算两个向量的余弦相似度；维度不符或零向量返回 0。
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
