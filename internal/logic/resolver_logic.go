package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moka/kcs/internal/bizerr"
	"github.com/moka/kcs/internal/logger"
	"github.com/moka/kcs/internal/model"
	"gorm.io/gorm"
)

// ResolverLogic 达人身份归一业务逻辑。
// 同一个真实达人不管被哪个商务、哪个品牌先录入，全局只有一条档案
type ResolverLogic struct {
	db *gorm.DB
}

// NewResolverLogic 创建达人身份归一业务逻辑
func NewResolverLogic(db *gorm.DB) *ResolverLogic {
	return &ResolverLogic{db: db}
}

// ResolveInput 身份归一输入
type ResolveInput struct {
	Nickname   string `json:"nickname"`
	Phone      string `json:"phone"`
	Platform   string `json:"platform" binding:"required"`
	PlatformId string `json:"platform_id" binding:"required"`
	Followers  int64  `json:"followers"`
}

// Resolve 查找或创建全局达人档案。
// 查找顺序：手机号精确匹配优先，其次 (platform, platform_id)。
// 同样的输入调用多次不会产生重复档案或重复平台账号
func (l *ResolverLogic) Resolve(input ResolveInput) (*model.CanonicalInfluencerModel, error) {
	input.Phone = strings.TrimSpace(input.Phone)
	input.Platform = strings.TrimSpace(input.Platform)
	input.PlatformId = strings.TrimSpace(input.PlatformId)

	if input.Platform == "" || input.PlatformId == "" {
		return nil, &bizerr.ValidationError{Field: "platform", Message: "平台和平台账号ID不能为空"}
	}

	var result *model.CanonicalInfluencerModel
	err := l.db.Transaction(func(tx *gorm.DB) error {
		found, err := l.lookup(tx, input)
		if err != nil {
			return err
		}
		if found != nil {
			// 已有档案：补齐缺失的平台账号，已认定的手机号不被覆盖
			if err := l.attachAccount(tx, found, input); err != nil {
				return err
			}
			result = found
			return nil
		}

		influencer := &model.CanonicalInfluencerModel{
			Nickname: input.Nickname,
			Phone:    input.Phone,
		}
		if err := tx.Create(influencer).Error; err != nil {
			return err
		}
		account := &model.PlatformAccountModel{
			InfluencerId: influencer.Id,
			Platform:     input.Platform,
			PlatformId:   input.PlatformId,
			Followers:    input.Followers,
		}
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		influencer.PlatformAccounts = []model.PlatformAccountModel{*account}
		result = influencer
		return nil
	})

	// 并发创建撞了唯一索引：对方已建档，按查找重走一遍
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		logger.Warn("Duplicate influencer insert for %s/%s, retrying lookup",
			input.Platform, input.PlatformId)
		return l.Resolve(input)
	}
	if err != nil {
		return nil, fmt.Errorf("达人身份归一失败: %w", err)
	}
	return result, nil
}

// lookup 按手机号、平台账号的顺序查找已有档案
func (l *ResolverLogic) lookup(tx *gorm.DB, input ResolveInput) (*model.CanonicalInfluencerModel, error) {
	if input.Phone != "" {
		var influencer model.CanonicalInfluencerModel
		err := tx.Preload("PlatformAccounts").
			Where("phone = ?", input.Phone).
			First(&influencer).Error
		if err == nil {
			return &influencer, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var account model.PlatformAccountModel
	err := tx.Where("platform = ? AND platform_id = ?", input.Platform, input.PlatformId).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var influencer model.CanonicalInfluencerModel
	if err := tx.Preload("PlatformAccounts").
		First(&influencer, "id = ?", account.InfluencerId).Error; err != nil {
		return nil, err
	}
	return &influencer, nil
}

// attachAccount 给已有档案补平台账号，已存在则不动
func (l *ResolverLogic) attachAccount(tx *gorm.DB, influencer *model.CanonicalInfluencerModel, input ResolveInput) error {
	for _, acc := range influencer.PlatformAccounts {
		if acc.Platform == input.Platform && acc.PlatformId == input.PlatformId {
			return nil
		}
	}

	account := &model.PlatformAccountModel{
		InfluencerId: influencer.Id,
		Platform:     input.Platform,
		PlatformId:   input.PlatformId,
		Followers:    input.Followers,
	}
	if err := tx.Create(account).Error; err != nil {
		// 账号已挂在别的档案下，以已有归属为准
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	influencer.PlatformAccounts = append(influencer.PlatformAccounts, *account)
	return nil
}

// GetInfluencer 获取全局达人档案
func (l *ResolverLogic) GetInfluencer(id string) (*model.CanonicalInfluencerModel, error) {
	var influencer model.CanonicalInfluencerModel
	err := l.db.Preload("PlatformAccounts").First(&influencer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &bizerr.NotFoundError{Entity: "达人"}
	}
	if err != nil {
		return nil, fmt.Errorf("获取达人档案失败: %w", err)
	}
	return &influencer, nil
}

// LinkBrandInfluencer 建立品牌与达人的工作关系，(brand, influencer) 已存在时直接返回已有记录
func (l *ResolverLogic) LinkBrandInfluencer(brandId, influencerId, staffId string) (*model.BrandInfluencerModel, error) {
	if _, err := l.GetInfluencer(influencerId); err != nil {
		return nil, err
	}

	link := &model.BrandInfluencerModel{
		BrandId:      brandId,
		InfluencerId: influencerId,
		AddedBy:      staffId,
	}
	err := l.db.Create(link).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var existing model.BrandInfluencerModel
		if err := l.db.Where("brand_id = ? AND influencer_id = ?", brandId, influencerId).
			First(&existing).Error; err != nil {
			return nil, fmt.Errorf("获取品牌达人关系失败: %w", err)
		}
		return &existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("建立品牌达人关系失败: %w", err)
	}
	return link, nil
}
