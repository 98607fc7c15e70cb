package config

// MergeMaps 将 src 深度合并到 dst
// 两侧都是 map 时递归合并，否则 src 的值整体替换 dst 的值。
// src 中的 map/切片会被复制，合并后 dst 不与 src 共享可变结构。
func MergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if dstMap, ok := dst[k].(map[string]any); ok {
			if srcMap, ok := v.(map[string]any); ok {
				MergeMaps(dstMap, srcMap)
				continue
			}
		}
		dst[k] = cloneValue(v)
	}
}

// CloneMap 深拷贝 map；nil 返回空 map
func CloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
