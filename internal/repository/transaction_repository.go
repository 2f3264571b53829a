package repository

import (
	"errors"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository 交易数据访问接口
type TransactionRepository interface {
	Create(transaction *models.Transaction) error
	GetByID(id uint) (*models.Transaction, error)
	ListByOrderID(orderID uint) ([]models.Transaction, error)
	GetCapturableByOrderID(orderID uint) (*models.Transaction, error)
	GetRefundableByOrderID(orderID uint) (*models.Transaction, error)
	WithTx(tx *gorm.DB) *GormTransactionRepository
}

// GormTransactionRepository GORM 实现
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建交易仓库
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) *GormTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormTransactionRepository{db: tx}
}

// Create 创建交易记录
func (r *GormTransactionRepository) Create(transaction *models.Transaction) error {
	return r.db.Create(transaction).Error
}

// GetByID 根据 ID 获取交易记录
func (r *GormTransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.First(&transaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transaction, nil
}

// ListByOrderID 获取订单全部交易记录
func (r *GormTransactionRepository) ListByOrderID(orderID uint) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetCapturableByOrderID 获取订单最近一笔可捕获交易。
// 可捕获 = 最后一笔授权，且其后没有出现捕获。
func (r *GormTransactionRepository) GetCapturableByOrderID(orderID uint) (*models.Transaction, error) {
	var authorize models.Transaction
	result := r.db.Where("order_id = ? AND transaction_type = ?", orderID, constants.TransactionTypeAuthorize).
		Order("id desc").Limit(1).Find(&authorize)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	var captured int64
	err := r.db.Model(&models.Transaction{}).
		Where("order_id = ? AND transaction_type = ? AND id > ?", orderID, constants.TransactionTypeCapture, authorize.ID).
		Count(&captured).Error
	if err != nil {
		return nil, err
	}
	if captured > 0 {
		return nil, nil
	}
	return &authorize, nil
}

// GetRefundableByOrderID 获取订单最近一笔可退款交易
// （授权并捕获，或捕获）。
func (r *GormTransactionRepository) GetRefundableByOrderID(orderID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	result := r.db.Where("order_id = ? AND transaction_type IN ?",
		orderID,
		[]string{constants.TransactionTypeAuthorizeCapture, constants.TransactionTypeCapture},
	).Order("id desc").Limit(1).Find(&transaction)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &transaction, nil
}
