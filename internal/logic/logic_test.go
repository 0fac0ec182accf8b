package logic

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/moka/kcs/internal/model"
	"github.com/moka/kcs/internal/repository"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// newTestDB 打开一个内存数据库并完成迁移，每个测试各一份
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// newSharedTestDB 打开一个跨连接共享的内存数据库，并发测试用。
// 普通 :memory: 每个池化连接各一份空库，跨 goroutine 看不到同一份数据。
// name 需测试间唯一，sqlite 单写者，连接数压到 1 避免 busy 错误
func newSharedTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db := openTestDB(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接池失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

func openTestDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

// seedLink 建档一个达人并挂到品牌下
func seedLink(t *testing.T, db *gorm.DB, brandId, staffId, platformId string) *model.BrandInfluencerModel {
	t.Helper()
	resolver := NewResolverLogic(db)
	influencer, err := resolver.Resolve(ResolveInput{
		Nickname:   "测试达人" + platformId,
		Platform:   "douyin",
		PlatformId: platformId,
		Followers:  100000,
	})
	if err != nil {
		t.Fatalf("建档达人失败: %v", err)
	}
	link, err := resolver.LinkBrandInfluencer(brandId, influencer.Id, staffId)
	if err != nil {
		t.Fatalf("建立品牌达人关系失败: %v", err)
	}
	return link
}

// seedCollaboration 创建合作记录并推进到指定阶段
func seedCollaboration(t *testing.T, db *gorm.DB, brandId, staffId string, stage model.PipelineStage, deadline *time.Time) *model.CollaborationModel {
	t.Helper()
	link := seedLink(t, db, brandId, staffId, "acct-"+staffId+"-"+string(stage))
	pipeline := NewPipelineLogic(db)
	collab, err := pipeline.CreateCollaboration(link.Id, staffId, deadline)
	if err != nil {
		t.Fatalf("创建合作记录失败: %v", err)
	}
	for _, next := range model.StageOrder[1:] {
		if collab.Stage == stage {
			break
		}
		if next == model.StageReviewed {
			// 复盘阶段只能随结果录入进入
			results := NewResultLogic(db, testThresholds)
			if _, err := results.Finalize(FinalizeInput{
				CollaborationId: collab.Id,
				ContentType:     model.ContentTypeShortVideo,
				SalesGmv:        100000,
				CommissionRate:  10,
			}); err != nil {
				t.Fatalf("录入合作结果失败: %v", err)
			}
			collab, err = pipeline.GetCollaboration(collab.Id)
			if err != nil {
				t.Fatalf("读取合作记录失败: %v", err)
			}
			break
		}
		collab, err = pipeline.Advance(collab.Id, next, "")
		if err != nil {
			t.Fatalf("推进合作到 %s 失败: %v", next, err)
		}
	}
	if collab.Stage != stage {
		t.Fatalf("合作阶段 = %s, 期望 %s", collab.Stage, stage)
	}
	return collab
}
