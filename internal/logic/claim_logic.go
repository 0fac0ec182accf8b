package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/moka/kcs/internal/bizerr"
	"github.com/moka/kcs/internal/logger"
	"github.com/moka/kcs/internal/model"
	"gorm.io/gorm"
)

// ClaimLogic 撞单保护业务逻辑。
// 同一 (brand, influencer) 同一时刻最多一个有效占用，
// 有效性在读取时由时间计算，不依赖过期记录是否已被清理
type ClaimLogic struct {
	db *gorm.DB
}

// NewClaimLogic 创建撞单保护业务逻辑
func NewClaimLogic(db *gorm.DB) *ClaimLogic {
	return &ClaimLogic{db: db}
}

// Acquire 获取达人占用。
// 占用冲突和进行中的合作都会挡下后来的商务；同一商务重复获取会顺延保护期。
// 并发安全靠两个条件写：对已有记录的带条件 UPDATE（只有失效记录或
// 自己的记录才允许改写），和 (brand_id, influencer_id) 唯一索引下的 INSERT。
// 两个请求抢同一个 key 时，数据库保证只有一个赢家
func (l *ClaimLogic) Acquire(brandId, influencerId, staffId string, window time.Duration) (*model.ClaimModel, error) {
	if window <= 0 {
		return nil, &bizerr.ValidationError{Field: "protection_window", Message: "保护期必须大于0"}
	}

	now := time.Now()

	// 进行中的合作本身就构成排他：合作未到终态时，
	// 即使最初的占用已自然过期，其他商务也不能接手
	if err := l.checkActiveCollaboration(brandId, influencerId, staffId, now); err != nil {
		return nil, err
	}

	// 条件改写：失效的占用（已释放或已过期）任何人可接手，自己的占用可以续期
	result := l.db.Model(&model.ClaimModel{}).
		Where("brand_id = ? AND influencer_id = ?", brandId, influencerId).
		Where("released = ? OR expires_at <= ? OR staff_id = ?", true, now, staffId).
		Updates(map[string]interface{}{
			"staff_id":    staffId,
			"acquired_at": now,
			"expires_at":  now.Add(window),
			"released":    false,
			"released_at": nil,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("获取占用失败: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return l.getClaim(brandId, influencerId)
	}

	// 没有可改写的记录：要么 key 上没有记录，要么被别人有效占用
	var existing model.ClaimModel
	err := l.db.Where("brand_id = ? AND influencer_id = ?", brandId, influencerId).
		First(&existing).Error
	if err == nil {
		return nil, &bizerr.ConflictError{
			HeldBy:     existing.StaffId,
			AcquiredAt: existing.AcquiredAt,
			ExpiresAt:  existing.ExpiresAt,
		}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询占用记录失败: %w", err)
	}

	fresh := &model.ClaimModel{
		BrandId:      brandId,
		InfluencerId: influencerId,
		StaffId:      staffId,
		AcquiredAt:   now,
		ExpiresAt:    now.Add(window),
	}
	err = l.db.Create(fresh).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 两个请求同时插入，输家撞唯一索引，按冲突返回赢家信息
		var winner model.ClaimModel
		if lookupErr := l.db.Where("brand_id = ? AND influencer_id = ?", brandId, influencerId).
			First(&winner).Error; lookupErr != nil {
			return nil, fmt.Errorf("获取占用记录失败: %w", lookupErr)
		}
		if winner.StaffId == staffId {
			return &winner, nil
		}
		return nil, &bizerr.ConflictError{
			HeldBy:     winner.StaffId,
			AcquiredAt: winner.AcquiredAt,
			ExpiresAt:  winner.ExpiresAt,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("创建占用记录失败: %w", err)
	}
	return fresh, nil
}

// checkActiveCollaboration 检查是否有其他商务的进行中合作
func (l *ClaimLogic) checkActiveCollaboration(brandId, influencerId, staffId string, now time.Time) error {
	var collab model.CollaborationModel
	err := l.db.Joins("JOIN brand_influencer ON brand_influencer.id = collaboration.brand_influencer_id").
		Where("brand_influencer.brand_id = ? AND brand_influencer.influencer_id = ?", brandId, influencerId).
		Where("collaboration.staff_id <> ?", staffId).
		Where("collaboration.stage NOT IN ?", []model.PipelineStage{
			model.StageReviewed, model.StageCancelled,
		}).
		First(&collab).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询进行中合作失败: %w", err)
	}
	return &bizerr.ConflictError{
		HeldBy:     collab.StaffId,
		AcquiredAt: collab.CreatedAt,
		ExpiresAt:  now, // 合作排他不随时间过期，过期时间仅供展示
	}
}

// Release 显式释放占用，立刻让出 key，不等自然过期。重复释放是幂等空操作
func (l *ClaimLogic) Release(claimId string) error {
	now := time.Now()
	result := l.db.Model(&model.ClaimModel{}).
		Where("id = ? AND released = ?", claimId, false).
		Updates(map[string]interface{}{
			"released":    true,
			"released_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("释放占用失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var claim model.ClaimModel
		err := l.db.First(&claim, "id = ?", claimId).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &bizerr.NotFoundError{Entity: "占用记录"}
		}
		if err != nil {
			return fmt.Errorf("释放占用失败: %w", err)
		}
	}
	return nil
}

// GetLiveClaim 查询 key 上的当前有效占用，没有则返回 nil
func (l *ClaimLogic) GetLiveClaim(brandId, influencerId string) (*model.ClaimModel, error) {
	var claim model.ClaimModel
	err := l.db.Where("brand_id = ? AND influencer_id = ?", brandId, influencerId).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询占用记录失败: %w", err)
	}
	if !claim.Live(time.Now()) {
		return nil, nil
	}
	return &claim, nil
}

// GC 清理自然过期或已释放的占用记录。清理只是优化，正确性不依赖它
func (l *ClaimLogic) GC(now time.Time) (int64, error) {
	result := l.db.Where("released = ? OR expires_at <= ?", true, now).
		Delete(&model.ClaimModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("清理过期占用失败: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		logger.Info("Claim GC removed %d expired claims", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

func (l *ClaimLogic) getClaim(brandId, influencerId string) (*model.ClaimModel, error) {
	var claim model.ClaimModel
	if err := l.db.Where("brand_id = ? AND influencer_id = ?", brandId, influencerId).
		First(&claim).Error; err != nil {
		return nil, fmt.Errorf("获取占用记录失败: %w", err)
	}
	return &claim, nil
}
