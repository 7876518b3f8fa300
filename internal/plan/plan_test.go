package plan

import (
	"testing"
	"time"

	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlan() domain.StudyPlan {
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	return domain.StudyPlan{
		Subject:     "Chemistry",
		StartDate:   start,
		EndDate:     start.AddDate(0, 1, 0),
		TargetHours: 20,
		Tasks: []domain.Task{
			{Title: "Read chapter 1", DueDate: start.AddDate(0, 0, 7)},
			{Title: "Past paper", DueDate: start.AddDate(0, 0, 14), Priority: domain.PriorityHigh},
		},
	}
}

func TestSave(t *testing.T) {
	svc := New(storage.NewMemory(), nil, nil, nil)

	p, err := svc.Save(newPlan())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	for _, task := range p.Tasks {
		assert.NotEmpty(t, task.ID)
		assert.Equal(t, "Chemistry", task.Subject)
	}
	assert.Equal(t, domain.PriorityMedium, p.Tasks[0].Priority)

	p.CompletedHours = 5
	_, err = svc.Save(p)
	require.NoError(t, err)

	plans := svc.List()
	require.Len(t, plans, 1, "saving an existing id replaces it")
	assert.Equal(t, 25, plans[0].Progress())
}

func TestSaveRejectsInvalidPlans(t *testing.T) {
	svc := New(storage.NewMemory(), nil, nil, nil)

	noSubject := newPlan()
	noSubject.Subject = " "
	_, err := svc.Save(noSubject)
	assert.ErrorIs(t, err, domain.ErrInvalid)

	backwards := newPlan()
	backwards.EndDate = backwards.StartDate.AddDate(0, 0, -1)
	_, err = svc.Save(backwards)
	assert.ErrorIs(t, err, domain.ErrInvalid)

	badPriority := newPlan()
	badPriority.Tasks[0].Priority = "urgent"
	_, err = svc.Save(badPriority)
	assert.ErrorIs(t, err, domain.ErrInvalid)

	assert.Empty(t, svc.List())
}

func TestUpdateTask(t *testing.T) {
	svc := New(storage.NewMemory(), nil, nil, nil)
	p, err := svc.Save(newPlan())
	require.NoError(t, err)
	taskID := p.Tasks[1].ID

	done := true
	updated, err := svc.UpdateTask(p.ID, taskID, domain.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Tasks[1].Completed)
	assert.False(t, updated.Tasks[0].Completed)

	stored, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Tasks[1].Completed)

	_, err = svc.UpdateTask(p.ID, "missing", domain.TaskPatch{Completed: &done})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = svc.UpdateTask("missing", taskID, domain.TaskPatch{Completed: &done})
	assert.ErrorIs(t, err, ErrPlanNotFound)

	blank := ""
	_, err = svc.UpdateTask(p.ID, taskID, domain.TaskPatch{Title: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestDelete(t *testing.T) {
	svc := New(storage.NewMemory(), nil, nil, nil)
	p, err := svc.Save(newPlan())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(p.ID))
	assert.Empty(t, svc.List())
	assert.ErrorIs(t, svc.Delete(p.ID), ErrPlanNotFound)
	_, err = svc.Get(p.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, domain.StudyPlan{}.Progress())
	assert.Equal(t, 100, domain.StudyPlan{TargetHours: 2, CompletedHours: 5}.Progress())
	assert.Equal(t, 33, domain.StudyPlan{TargetHours: 3, CompletedHours: 1}.Progress())
}
