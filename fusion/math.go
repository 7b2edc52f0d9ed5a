package fusion

// addScaled 把 src*weight 累加到 dst 上。dst 为 nil 时按 src 长度分配。
// 维度不一致的向量直接忽略，避免脏数据污染整条融合链。
func addScaled(dst, src []float64, weight float64) []float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make([]float64, len(src))
	}
	if len(dst) != len(src) {
		return dst
	}
	for i, v := range src {
		dst[i] += v * weight
	}
	return dst
}

// scale 向量整体乘以 factor，原地修改。
func scale(v []float64, factor float64) []float64 {
	for i := range v {
		v[i] *= factor
	}
	return v
}

// blend 返回 a*wa + b*wb。只有一路存在时直接返回该路，不做缩放：
// 加权只在两路混合时才有意义。
func blend(a, b []float64, wa, wb float64) []float64 {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 || len(a) != len(b) {
		return a
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i]*wa + b[i]*wb
	}
	return out
}

// mean 返回 a 和 b 的逐元素算术平均。
func mean(a, b []float64) []float64 {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 || len(a) != len(b) {
		return a
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = (a[i] + b[i]) / 2
	}
	return out
}
