package repository

import (
	"ftpsched/internal/db"
	"ftpsched/internal/model"
)

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Save(outcome model.Outcome) error {
	history := model.History{
		EndpointID:  outcome.Endpoint.ID,
		Addr:        outcome.Endpoint.Addr(),
		Status:      outcome.Status,
		Source:      outcome.Source,
		Destination: outcome.Destination,
		Transferred: outcome.Stats.Transferred,
		Unchanged:   outcome.Stats.Unchanged,
		Bytes:       outcome.Stats.Bytes,
		StartedAt:   outcome.StartedAt,
		FinishedAt:  outcome.FinishedAt,
	}
	if outcome.Status != model.OutcomeSuccess {
		history.ErrMsg = outcome.Reason
	}

	return db.DB.Create(&history).Error
}

type Stats struct {
	Total     int64 `json:"total"`
	Success   int64 `json:"success"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.History{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	counts := map[model.OutcomeStatus]*int64{
		model.OutcomeSuccess:   &stats.Success,
		model.OutcomeFailed:    &stats.Failed,
		model.OutcomeCancelled: &stats.Cancelled,
	}
	for status, dst := range counts {
		if err := db.DB.Model(&model.History{}).
			Where("status = ?", status).
			Count(dst).Error; err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Order("finished_at desc, id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetFailed() ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Where("status = ?", model.OutcomeFailed).
		Order("finished_at desc").
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetByEndpoint(endpointID string, limit int) ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Where("endpoint_id = ?", endpointID).
		Order("finished_at desc, id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}
