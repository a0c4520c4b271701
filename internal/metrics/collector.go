package metrics

import (
	"context"
	"time"

	"github.com/mautops/review-gin/internal/model"
	"gorm.io/gorm"
)

// Collector 指标收集器
// 定期刷新数据库连接数和内容审核状态分布
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.collectStatusDistribution()
		}
	}
}

// collectStatusDistribution 刷新内容审核状态分布
func (c *Collector) collectStatusDistribution() {
	type statusCount struct {
		ReviewStatus string
		Count        int64
	}

	var rows []statusCount
	err := c.db.Model(&model.ContentItemModel{}).
		Select("review_status, count(*) as count").
		Group("review_status").
		Scan(&rows).Error
	if err != nil {
		return
	}

	// 先清零三个已知状态,避免已清空的状态残留旧值
	for _, status := range []string{"", "pending", "ready"} {
		UpdateContentsByStatus(statusLabel(status), 0)
	}
	for _, row := range rows {
		UpdateContentsByStatus(statusLabel(row.ReviewStatus), float64(row.Count))
	}
}

// statusLabel 空状态在指标标签里显示为 none
func statusLabel(status string) string {
	if status == "" {
		return "none"
	}
	return status
}
