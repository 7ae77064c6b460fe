package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/config"
	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
)

// BlastService queues and runs email blasts. CreateBlast persists the job and
// returns immediately; a single background worker drains the queue, sending
// one email at a time with a configurable pause between sends.
type BlastService interface {
	CreateBlast(user *model.User, formID uint, req dto.BlastCreateDTO) (*dto.BlastResponseDTO, error)
	Get(id uint) (*dto.BlastResponseDTO, error)

	Start()
	Stop()
}

type blastService struct {
	blastRepo repository.BlastRepository
	formRepo  repository.FormRepository
	subRepo   repository.SubmissionRepository
	mailer    Mailer
	cfg       *config.Config

	queue chan uint
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func NewBlastService(
	blastRepo repository.BlastRepository,
	formRepo repository.FormRepository,
	subRepo repository.SubmissionRepository,
	mailer Mailer,
	cfg *config.Config,
) BlastService {
	return &blastService{
		blastRepo: blastRepo,
		formRepo:  formRepo,
		subRepo:   subRepo,
		mailer:    mailer,
		cfg:       cfg,
		queue:     make(chan uint, 64),
		quit:      make(chan struct{}),
	}
}

func (s *blastService) CreateBlast(user *model.User, formID uint, req dto.BlastCreateDTO) (*dto.BlastResponseDTO, error) {
	form, err := s.formRepo.FindByID(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if !user.CanManage(form) {
		return nil, ErrForbidden
	}

	blast := model.EmailBlast{
		FormID:  form.ID,
		Subject: req.Subject,
		Body:    req.Body,
		Status:  model.BlastPending,
	}
	if err := s.blastRepo.Create(&blast); err != nil {
		return nil, fmt.Errorf("creating blast: %w", err)
	}

	select {
	case s.queue <- blast.ID:
	default:
		// Queue full; the worker re-scans pending rows, so the job is not lost.
		log.Warn().Uint("blast_id", blast.ID).Msg("Blast queue full, deferring to pending scan")
	}

	return toBlastDTO(&blast), nil
}

func (s *blastService) Get(id uint) (*dto.BlastResponseDTO, error) {
	blast, err := s.blastRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlastNotFound
		}
		return nil, err
	}
	return toBlastDTO(blast), nil
}

func (s *blastService) Start() {
	s.wg.Add(1)
	go s.worker()
}

func (s *blastService) Stop() {
	s.once.Do(func() { close(s.quit) })
	s.wg.Wait()
}

func (s *blastService) worker() {
	defer s.wg.Done()

	// Pick up jobs that were pending when the process last stopped.
	if pending, err := s.blastRepo.FindByStatus(model.BlastPending); err == nil {
		for _, b := range pending {
			select {
			case s.queue <- b.ID:
			default:
			}
		}
	}

	for {
		select {
		case <-s.quit:
			return
		case id := <-s.queue:
			s.run(id)
		}
	}
}

func (s *blastService) run(id uint) {
	blast, err := s.blastRepo.FindByID(id)
	if err != nil {
		log.Error().Err(err).Uint("blast_id", id).Msg("Blast vanished before running")
		return
	}
	if blast.Status != model.BlastPending {
		return
	}

	form, err := s.formRepo.FindByID(blast.FormID)
	if err != nil {
		blast.Status = model.BlastFailed
		s.blastRepo.Update(blast)
		log.Error().Err(err).Uint("blast_id", id).Msg("Blast form lookup failed")
		return
	}

	emails, err := s.subRepo.DistinctEmails(form.ID)
	if err != nil {
		blast.Status = model.BlastFailed
		s.blastRepo.Update(blast)
		log.Error().Err(err).Uint("blast_id", id).Msg("Blast recipient lookup failed")
		return
	}

	blast.Status = model.BlastRunning
	blast.TotalRecipients = len(emails)
	if err := s.blastRepo.Update(blast); err != nil {
		log.Error().Err(err).Uint("blast_id", id).Msg("Marking blast running failed")
		return
	}

	interval := time.Duration(s.cfg.Blast.SendIntervalMS) * time.Millisecond
	for i, to := range emails {
		select {
		case <-s.quit:
			// Leave the tallies as they are; the row stays in running state and
			// shows how far the blast got.
			s.blastRepo.Update(blast)
			return
		default:
		}

		if _, err := s.mailer.Send(to, blast.Subject, blast.Body, nil); err != nil {
			blast.FailedCount++
			log.Warn().Err(err).Uint("blast_id", id).Str("to", to).Msg("Blast send failed")
		} else {
			blast.SentCount++
		}

		if i < len(emails)-1 && interval > 0 {
			time.Sleep(interval)
		}
	}

	if blast.TotalRecipients > 0 && blast.SentCount == 0 {
		blast.Status = model.BlastFailed
	} else {
		blast.Status = model.BlastCompleted
	}
	if err := s.blastRepo.Update(blast); err != nil {
		log.Error().Err(err).Uint("blast_id", id).Msg("Finalizing blast failed")
	}
	log.Info().
		Uint("blast_id", id).
		Int("sent", blast.SentCount).
		Int("failed", blast.FailedCount).
		Str("status", blast.Status).
		Msg("Blast finished")
}

func toBlastDTO(blast *model.EmailBlast) *dto.BlastResponseDTO {
	return &dto.BlastResponseDTO{
		ID:              blast.ID,
		FormID:          blast.FormID,
		Subject:         blast.Subject,
		Status:          blast.Status,
		TotalRecipients: blast.TotalRecipients,
		SentCount:       blast.SentCount,
		FailedCount:     blast.FailedCount,
		CreatedAt:       blast.CreatedAt,
	}
}
