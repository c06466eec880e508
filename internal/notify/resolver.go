package notify

import (
	"context"
	"fmt"
)

// DirectoryQuery 空字段表示不限
type DirectoryQuery struct {
	BloodGroup string
	District   string
}

// Directory 献血者目录的等值查询接口
type Directory interface {
	FindAvailable(ctx context.Context, q DirectoryQuery) ([]DonorRecord, error)
}

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve 返回可用且血型、行政区字面相等的献血者。
// 不做 ABO/Rh 相容扩展：请求 A+ 时 O- 献血者不会被选中。
// 查询失败时返回空列表和错误，调用方可区分"无人匹配"与"查询失败"。
func (r *Resolver) Resolve(ctx context.Context, bloodGroup, district string) ([]DonorRecord, error) {
	donors, err := r.dir.FindAvailable(ctx, DirectoryQuery{BloodGroup: bloodGroup, District: district})
	if err != nil {
		return []DonorRecord{}, fmt.Errorf("query donor directory: %w", err)
	}

	matched := make([]DonorRecord, 0, len(donors))
	for _, d := range donors {
		if matches(d, bloodGroup, district) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func matches(d DonorRecord, bloodGroup, district string) bool {
	if !d.IsAvailable {
		return false
	}
	if bloodGroup != "" && string(d.BloodGroup) != bloodGroup {
		return false
	}
	if district != "" && d.District != district {
		return false
	}
	return true
}
