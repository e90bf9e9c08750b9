package service

import (
	"testing"

	"mentorship_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressPercentage(t *testing.T) {
	assert.Equal(t, 0, ProgressPercentage(0, 0))
	assert.Equal(t, 0, ProgressPercentage(0, 3))
	assert.Equal(t, 33, ProgressPercentage(1, 3))
	assert.Equal(t, 67, ProgressPercentage(2, 3))
	assert.Equal(t, 100, ProgressPercentage(3, 3))
	assert.Equal(t, 50, ProgressPercentage(1, 2))
}

func TestRecalculateWeekProgressBuckets(t *testing.T) {
	e := newTestEnv(t)
	e.seedCurriculum(t, model.DomainBackend, 1, 2)
	buddy := e.createBuddy(t, "bucket-buddy", model.DomainBackend, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainBackend)
	require.NoError(t, err)
	enrollmentID := result.Enrollment.ID

	progresses, err := e.enrollmentRepo.FindWeekProgressesByEnrollment(enrollmentID)
	require.NoError(t, err)
	require.Len(t, progresses, 1)
	weekProgress := &progresses[0]

	assert.Equal(t, model.WeekNotStarted, weekProgress.Status)
	assert.Equal(t, 2, weekProgress.TotalTasks)

	assignments, err := e.assignmentRepo.FindByWeekProgress(weekProgress.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	// 一个完成 -> in_progress 50%
	assignments[0].Status = model.AssignmentCompleted
	require.NoError(t, e.assignmentRepo.Save(&assignments[0]))

	updated, err := e.progress.RecalculateWeekProgress(weekProgress.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CompletedTasks)
	assert.Equal(t, 50, updated.ProgressPercentage)
	assert.Equal(t, model.WeekInProgress, updated.Status)
	assert.Nil(t, updated.CompletedAt)

	// 全部完成 -> completed 100%，盖章时间
	assignments[1].Status = model.AssignmentCompleted
	require.NoError(t, e.assignmentRepo.Save(&assignments[1]))

	updated, err = e.progress.RecalculateWeekProgress(weekProgress.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.ProgressPercentage)
	assert.Equal(t, model.WeekCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)

	// 回退一个 -> 回到 in_progress，completedAt 清空
	assignments[1].Status = model.AssignmentInProgress
	require.NoError(t, e.assignmentRepo.Save(&assignments[1]))

	updated, err = e.progress.RecalculateWeekProgress(weekProgress.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WeekInProgress, updated.Status)
	assert.Nil(t, updated.CompletedAt)
}

func TestUpdateCurriculumProgressCompletionFlip(t *testing.T) {
	e := newTestEnv(t)
	e.seedCurriculum(t, model.DomainBackend, 1, 1)
	buddy := e.createBuddy(t, "flip-buddy", model.DomainBackend, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainBackend)
	require.NoError(t, err)
	enrollmentID := result.Enrollment.ID

	assignments, err := e.assignmentRepo.FindByEnrollment(enrollmentID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)

	assignments[0].Status = model.AssignmentCompleted
	require.NoError(t, e.assignmentRepo.Save(&assignments[0]))
	require.NoError(t, e.progress.UpdateWeekProgress(assignments[0].ID))

	enrollment, err := e.enrollmentRepo.FindByID(enrollmentID)
	require.NoError(t, err)
	assert.Equal(t, 100, enrollment.OverallProgress)
	assert.Equal(t, model.EnrollmentCompleted, enrollment.Status)
	assert.NotNil(t, enrollment.CompletedAt)

	// 任务被打回后课程状态回到 active
	assignments[0].Status = model.AssignmentInProgress
	require.NoError(t, e.assignmentRepo.Save(&assignments[0]))
	require.NoError(t, e.progress.UpdateWeekProgress(assignments[0].ID))

	enrollment, err = e.enrollmentRepo.FindByID(enrollmentID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentActive, enrollment.Status)
	assert.Nil(t, enrollment.CompletedAt)
}

func TestUpdateCurriculumProgressLeavesPausedAlone(t *testing.T) {
	e := newTestEnv(t)
	e.seedCurriculum(t, model.DomainBackend, 1, 2)
	buddy := e.createBuddy(t, "paused-buddy", model.DomainBackend, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainBackend)
	require.NoError(t, err)
	enrollment := result.Enrollment

	enrollment.Status = model.EnrollmentPaused
	require.NoError(t, e.enrollmentRepo.Save(enrollment))

	require.NoError(t, e.progress.UpdateCurriculumProgress(enrollment.ID))

	reloaded, err := e.enrollmentRepo.FindByID(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentPaused, reloaded.Status)
}

func TestUpdateCurriculumProgressTracksCurrentWeek(t *testing.T) {
	e := newTestEnv(t)
	e.seedCurriculum(t, model.DomainData, 2, 1)
	buddy := e.createBuddy(t, "cw-buddy", model.DomainData, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainData)
	require.NoError(t, err)
	enrollment := result.Enrollment
	assert.Equal(t, 1, enrollment.CurrentWeek)

	assignments, err := e.assignmentRepo.FindByEnrollment(enrollment.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	// 第一周完成，当前周推进到第二周
	first := &assignments[0]
	first.Status = model.AssignmentCompleted
	require.NoError(t, e.assignmentRepo.Save(first))
	require.NoError(t, e.progress.UpdateWeekProgress(first.ID))

	reloaded, err := e.enrollmentRepo.FindByID(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.CurrentWeek)

	// 全部完成后停在最后一周
	second := &assignments[1]
	second.Status = model.AssignmentCompleted
	require.NoError(t, e.assignmentRepo.Save(second))
	require.NoError(t, e.progress.UpdateWeekProgress(second.ID))

	reloaded, err = e.enrollmentRepo.FindByID(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.CurrentWeek)
	assert.Equal(t, model.EnrollmentCompleted, reloaded.Status)
}
