// Package hitlog 记录每一次点击/下载事件并按时间倒序读取.
package hitlog

import (
	"context"
	"fmt"
	"time"

	"doctrack-platform/internal/geo"
	"doctrack-platform/internal/model"

	"gorm.io/gorm"
)

// TimestampLayout 写入 ts 字段的 UTC 时间格式
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// AnonymousViewer 没有会话身份时记录的访问者
const AnonymousViewer = "anonymous"

// Entry 一次访问的原始信息, 时间戳由 Recorder 生成
type Entry struct {
	DocRef    string
	ViewerID  string
	IP        string
	UserAgent string
	Location  geo.Result
}

// Recorder 基于 gorm 的访问日志
type Recorder struct {
	db           *gorm.DB
	defaultLimit int
	now          func() time.Time
}

// NewRecorder 创建记录器, defaultLimit 为 Recent 未指定数量时的上限
func NewRecorder(db *gorm.DB, defaultLimit int) *Recorder {
	if defaultLimit <= 0 {
		defaultLimit = 1000
	}
	return &Recorder{db: db, defaultLimit: defaultLimit, now: time.Now}
}

// Record 追加一行记录. 未解析的位置字段写为 NULL.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	viewer := e.ViewerID
	if viewer == "" {
		viewer = AnonymousViewer
	}

	hit := model.Hit{
		DocRef:    e.DocRef,
		UserID:    viewer,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		Timestamp: r.now().UTC().Format(TimestampLayout),
	}
	if place, ok := e.Location.Place(); ok {
		hit.Lat = &place.Lat
		hit.Lon = &place.Lon
		hit.City = &place.City
		hit.Region = &place.Region
		hit.Country = &place.Country
	}

	if err := r.db.WithContext(ctx).Create(&hit).Error; err != nil {
		return fmt.Errorf("写入访问记录失败: %w", err)
	}
	return nil
}

// Recent 按插入顺序倒序返回最多 limit 条记录; limit <= 0 使用默认上限
func (r *Recorder) Recent(ctx context.Context, limit int) ([]model.Hit, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}

	var hits []model.Hit
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&hits).Error; err != nil {
		return nil, fmt.Errorf("读取访问记录失败: %w", err)
	}
	return hits, nil
}
