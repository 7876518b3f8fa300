// Package plan stores study plans and their tasks.
package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/storage"
)

var (
	ErrPlanNotFound = errors.New("study plan not found")
	ErrTaskNotFound = errors.New("task not found")
)

type Service struct {
	mu    sync.Mutex
	store storage.Store
	clock clock.Clock
	pub   notify.Publisher
	log   *slog.Logger
}

func New(store storage.Store, clk clock.Clock, pub notify.Publisher, log *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if pub == nil {
		pub = notify.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, clock: clk, pub: pub, log: log}
}

func (s *Service) List() []domain.StudyPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Service) Get(id string) (domain.StudyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans := s.load()
	i := indexOf(plans, id)
	if i < 0 {
		return domain.StudyPlan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return plans[i], nil
}

// Save inserts p, or replaces the stored plan with the same id. Missing plan
// and task ids are generated; tasks inherit the plan's subject when they have none.
func (s *Service) Save(p domain.StudyPlan) (domain.StudyPlan, error) {
	p.Subject = strings.TrimSpace(p.Subject)
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	if p.Tasks == nil {
		p.Tasks = []domain.Task{}
	}
	for i := range p.Tasks {
		task := &p.Tasks[i]
		if task.ID == "" {
			task.ID = domain.NewID()
		}
		if task.Subject == "" {
			task.Subject = p.Subject
		}
		if task.Priority == "" {
			task.Priority = domain.PriorityMedium
		}
	}
	if err := domain.Validate(p); err != nil {
		return domain.StudyPlan{}, err
	}
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return domain.StudyPlan{}, fmt.Errorf("%w: plan ends before it starts", domain.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plans := s.load()
	if i := indexOf(plans, p.ID); i >= 0 {
		plans[i] = p
	} else {
		plans = append(plans, p)
	}
	if err := s.save(plans); err != nil {
		return domain.StudyPlan{}, err
	}
	s.log.Info("study plan saved", "plan", p.ID, "subject", p.Subject, "tasks", len(p.Tasks))
	s.changed()
	return p, nil
}

// UpdateTask applies patch to one task of a plan.
func (s *Service) UpdateTask(planID, taskID string, patch domain.TaskPatch) (domain.StudyPlan, error) {
	if err := domain.Validate(patch); err != nil {
		return domain.StudyPlan{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plans := s.load()
	i := indexOf(plans, planID)
	if i < 0 {
		return domain.StudyPlan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	plan := plans[i]
	j := slices.IndexFunc(plan.Tasks, func(t domain.Task) bool { return t.ID == taskID })
	if j < 0 {
		return domain.StudyPlan{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	task := &plan.Tasks[j]
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return domain.StudyPlan{}, fmt.Errorf("%w: task title must not be empty", domain.ErrInvalid)
		}
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}

	if err := s.save(plans); err != nil {
		return domain.StudyPlan{}, err
	}
	s.changed()
	return plan, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans := s.load()
	i := indexOf(plans, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	if err := s.save(slices.Delete(plans, i, i+1)); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Service) load() []domain.StudyPlan {
	return storage.LoadJSON(s.store, storage.KeyStudyPlans, []domain.StudyPlan{}, s.log)
}

func (s *Service) save(plans []domain.StudyPlan) error {
	if plans == nil {
		plans = []domain.StudyPlan{}
	}
	return storage.SaveJSON(s.store, storage.KeyStudyPlans, plans)
}

func (s *Service) changed() {
	s.pub.Publish(notify.Event{Topic: notify.TopicPlans, At: s.clock.Now()})
}

func indexOf(plans []domain.StudyPlan, id string) int {
	return slices.IndexFunc(plans, func(p domain.StudyPlan) bool { return p.ID == id })
}
