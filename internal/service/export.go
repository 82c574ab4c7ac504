package service

import (
	"context"
	"io"
	"time"

	"contact-service/internal/csvio"
	"contact-service/internal/model"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"
	"contact-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExportService writes an organization's contacts as CSV
type ExportService struct {
	db     *gorm.DB
	values *AttributeValueService
}

func NewExportService(db *gorm.DB, values *AttributeValueService) *ExportService {
	return &ExportService{db: db, values: values}
}

// Export writes every contact of the organization in the standard layout.
// Attribute columns follow the order in which keys first appear. An empty
// organization gets the sample file.
func (s *ExportService) Export(ctx context.Context, organizationID uint, w io.Writer) (int, error) {
	defer prometheus.TrackDBOperation("contact_export")(time.Now())

	var contacts []model.Contact
	err := database.Conn(ctx, s.db).
		Where("organization_id = ?", organizationID).
		Order("id ASC").
		Find(&contacts).Error
	if err != nil {
		return 0, dbError("Failed to load contacts", err)
	}

	if len(contacts) == 0 {
		if _, err := w.Write(csvio.Sample()); err != nil {
			return 0, dbError("Failed to write sample CSV", err)
		}
		return 0, nil
	}

	ids := make([]uint, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	byContact, err := s.values.BatchLoad(ctx, ids)
	if err != nil {
		return 0, err
	}

	var defIDs []uint
	for _, values := range byContact {
		for _, v := range values {
			defIDs = append(defIDs, v.AttributeDefinitionID)
		}
	}
	defs, err := s.values.schema.definitionsByID(ctx, defIDs)
	if err != nil {
		return 0, err
	}

	var keys []string
	seen := make(map[string]struct{})
	rows := make([]map[string]string, len(contacts))
	for i, c := range contacts {
		rows[i] = make(map[string]string)
		for j := range byContact[c.ID] {
			v := &byContact[c.ID][j]
			def, ok := defs[v.AttributeDefinitionID]
			if !ok {
				continue
			}
			if _, ok := seen[def.Key]; !ok {
				seen[def.Key] = struct{}{}
				keys = append(keys, def.Key)
			}
			rows[i][def.Key] = DisplayValue(v)
		}
	}

	cw, err := csvio.NewWriter(w, keys)
	if err != nil {
		return 0, dbError("Failed to write CSV", err)
	}
	for i, c := range contacts {
		if err := cw.Write(c.PhoneNumber, c.DisplayName, rows[i]); err != nil {
			return 0, dbError("Failed to write CSV", err)
		}
	}
	if err := cw.Flush(); err != nil {
		return 0, dbError("Failed to write CSV", err)
	}

	logger.FromContext(ctx).Info("Contacts exported",
		zap.Uint("organization_id", organizationID),
		zap.Int("contacts", len(contacts)),
		zap.Int("attribute_columns", len(keys)))
	return len(contacts), nil
}
