package sos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

func validateContact(c *models.Contact) error {
	c.Phone = strings.TrimSpace(c.Phone)
	if strings.TrimSpace(c.UserID) == "" {
		return errs.Validation("contact owner is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errs.Validation("contact name is required")
	}
	if c.Phone == "" {
		return errs.Validation("contact phone is required")
	}
	if c.Priority < models.MinContactPriority || c.Priority > models.MaxContactPriority {
		return errs.Validation("contact priority %d out of range %d..%d", c.Priority, models.MinContactPriority, models.MaxContactPriority)
	}
	if len(c.Channels) == 0 {
		c.Channels = []models.Channel{models.ChannelSMS}
	}
	for _, ch := range c.Channels {
		if !models.ValidChannel(ch) {
			return errs.Validation("unknown channel %q", ch)
		}
	}
	if c.Relationship == "" {
		c.Relationship = models.RelationshipOther
	}
	return nil
}

// createContact enforces one phone per owner. Re-adding a soft-deleted phone restores that row.
func (s *SOS) createContact(ctx context.Context, c *models.Contact) error {
	if err := validateContact(c); err != nil {
		return err
	}

	return s.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Contact
		if err := tx.Unscoped().Where("user_id = ? AND phone = ?", c.UserID, c.Phone).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			prev := existing[0]
			if !prev.DeletedAt.Valid {
				return errs.Conflict("contact with phone %s already exists", c.Phone).WithContext("contact_id", prev.ID)
			}
			c.ID = prev.ID
			c.CreatedAt = prev.CreatedAt
			c.DeletedAt = gorm.DeletedAt{}
			if err := tx.Unscoped().Save(c).Error; err != nil {
				return err
			}
			common.CategoryLogger(common.LoggerCategorySOSCascade).Info("Contact restored",
				zap.String("contact_id", c.ID), zap.String("user_id", c.UserID))
			return nil
		}

		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		err := tx.Create(c).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Conflict("contact with phone %s already exists", c.Phone)
		}
		return err
	})
}

func (s *SOS) updateContact(ctx context.Context, c *models.Contact) error {
	if err := validateContact(c); err != nil {
		return err
	}
	existing, err := s.getContact(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing.UserID != c.UserID {
		return errs.NotFound("contact %s not found", c.ID)
	}

	var clash int64
	if err := s.Db.Conn.WithContext(ctx).Model(&models.Contact{}).
		Where("user_id = ? AND phone = ? AND id <> ?", c.UserID, c.Phone, c.ID).
		Count(&clash).Error; err != nil {
		return err
	}
	if clash > 0 {
		return errs.Conflict("contact with phone %s already exists", c.Phone)
	}

	existing.Name = c.Name
	existing.Phone = c.Phone
	existing.Email = c.Email
	existing.Relationship = c.Relationship
	existing.Priority = c.Priority
	existing.Channels = c.Channels
	existing.LinkedUserID = c.LinkedUserID
	existing.Verified = c.Verified
	if err := s.Db.Conn.WithContext(ctx).Save(existing).Error; err != nil {
		return err
	}
	*c = *existing
	return nil
}

func (s *SOS) deleteContact(ctx context.Context, userID, id string) error {
	res := s.Db.Conn.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("contact %s not found", id)
	}
	return nil
}

func (s *SOS) getContact(ctx context.Context, id string) (*models.Contact, error) {
	var c models.Contact
	if err := s.Db.Conn.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("contact %s not found", id)
		}
		return nil, err
	}
	return &c, nil
}

// listContacts returns the owner's contacts most urgent first.
func (s *SOS) listContacts(ctx context.Context, userID string) ([]models.Contact, error) {
	var contacts []models.Contact
	err := s.Db.Conn.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("priority asc, created_at asc, id asc").
		Find(&contacts).Error
	return contacts, err
}

type IContactImpl struct {
	sos *SOS
}

func (ic *IContactImpl) Create(ctx context.Context, c *models.Contact) error {
	return ic.sos.createContact(ctx, c)
}

func (ic *IContactImpl) Update(ctx context.Context, c *models.Contact) error {
	return ic.sos.updateContact(ctx, c)
}

func (ic *IContactImpl) Delete(ctx context.Context, userID, id string) error {
	return ic.sos.deleteContact(ctx, userID, id)
}

func (ic *IContactImpl) Get(ctx context.Context, id string) (*models.Contact, error) {
	return ic.sos.getContact(ctx, id)
}

func (ic *IContactImpl) List(ctx context.Context, userID string) ([]models.Contact, error) {
	return ic.sos.listContacts(ctx, userID)
}

func (s *SOS) GetIContact() IContact {
	return &IContactImpl{sos: s}
}
