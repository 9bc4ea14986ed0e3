package repository

import (
	"errors"

	"github.com/dimitrisavellas/trivia-game/internal/game"
	"github.com/dimitrisavellas/trivia-game/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository reads the question bank. It implements
// game.QuestionSource.
type QuestionRepository struct {
	db *Database
}

func NewQuestionRepository(db *Database) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Draw picks a random question matching any of the difficulty labels and
// returns it with answers in display order.
func (r *QuestionRepository) Draw(difficulties []string) (*game.Question, error) {
	var question models.Question

	query := r.db.Order("RANDOM()")
	if len(difficulties) > 0 {
		query = query.Where("difficulty IN ?", difficulties)
	}
	if err := query.First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, game.ErrNoQuestions
		}
		return nil, err
	}

	var answers []models.Answer
	if err := r.db.Where("question_id = ?", question.ID).
		Order("display_order asc").Find(&answers).Error; err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, game.ErrNoQuestions
	}

	drawn := &game.Question{Text: question.Content}
	for _, a := range answers {
		drawn.Answers = append(drawn.Answers, game.Answer{Text: a.Content, Points: a.Points})
	}
	return drawn, nil
}

// CountByDifficulty reports how many questions carry each difficulty label,
// used by the startup sanity check.
func (r *QuestionRepository) CountByDifficulty(difficulty string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Question{}).Where("difficulty = ?", difficulty).Count(&count).Error
	return count, err
}
