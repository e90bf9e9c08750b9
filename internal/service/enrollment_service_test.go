package service

import (
	"testing"
	"time"

	"mentorship_backend/internal/model"
	"mentorship_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoEnrollBuildsFullTree(t *testing.T) {
	e := newTestEnv(t)
	curriculum := e.seedCurriculum(t, model.DomainBackend, 3, 2)
	buddy := e.createBuddy(t, "tree-buddy", model.DomainBackend, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainBackend)
	require.NoError(t, err)
	require.False(t, result.NoCurriculumAvailable)
	require.NotNil(t, result.Enrollment)

	assert.Equal(t, 3, result.WeekCount)
	assert.Equal(t, 6, result.TaskCount)
	assert.Equal(t, curriculum.ID, result.Enrollment.CurriculumID)
	assert.Equal(t, model.EnrollmentActive, result.Enrollment.Status)

	progresses, err := e.enrollmentRepo.FindWeekProgressesByEnrollment(result.Enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, progresses, 3)
	for _, p := range progresses {
		assert.Equal(t, 2, p.TotalTasks)
		assert.Equal(t, model.WeekNotStarted, p.Status)
	}

	assignments, err := e.assignmentRepo.FindByEnrollment(result.Enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 6)
	for _, a := range assignments {
		assert.Equal(t, model.AssignmentNotStarted, a.Status)
	}

	// 目标完成日期 = 报名时间 + 总周数 * 7 天
	expected := result.Enrollment.EnrolledAt.AddDate(0, 0, 3*util.DaysPerWeek)
	assert.WithinDuration(t, expected, result.Enrollment.TargetCompletionDate, time.Second)
}

func TestAutoEnrollNoCurriculumIsNotAnError(t *testing.T) {
	e := newTestEnv(t)
	buddy := e.createBuddy(t, "lonely-buddy", model.DomainMobile, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainMobile)
	require.NoError(t, err)
	assert.True(t, result.NoCurriculumAvailable)
	assert.Nil(t, result.Enrollment)
}

func TestEnrollRejectsUnpublishedCurriculum(t *testing.T) {
	e := newTestEnv(t)
	curriculum := e.seedCurriculum(t, model.DomainBackend, 1, 1)
	curriculum.Status = model.CurriculumDraft
	require.NoError(t, e.curriculumRepo.Update(curriculum))

	buddy := e.createBuddy(t, "eager-buddy", model.DomainBackend, 0)

	_, err := e.enrollment.EnrollByCurriculumID(buddy.ID, curriculum.ID)
	assert.ErrorIs(t, err, util.ErrCurriculumNotPublished)
}

func TestEnrollTwiceFails(t *testing.T) {
	e := newTestEnv(t)
	curriculum := e.seedCurriculum(t, model.DomainBackend, 1, 1)
	buddy := e.createBuddy(t, "double-buddy", model.DomainBackend, 0)

	_, err := e.enrollment.EnrollByCurriculumID(buddy.ID, curriculum.ID)
	require.NoError(t, err)

	_, err = e.enrollment.EnrollByCurriculumID(buddy.ID, curriculum.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)
}

func TestSetEnrollmentStatus(t *testing.T) {
	e := newTestEnv(t)
	e.seedCurriculum(t, model.DomainBackend, 1, 1)
	buddy := e.createBuddy(t, "status-buddy", model.DomainBackend, 0)
	other := e.createBuddy(t, "other-buddy", model.DomainBackend, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainBackend)
	require.NoError(t, err)
	enrollmentID := result.Enrollment.ID

	// 别的学员不能动
	_, err = e.enrollment.SetEnrollmentStatus(enrollmentID, claimsFor(other), model.EnrollmentPaused)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	// 本人可以暂停再恢复
	updated, err := e.enrollment.SetEnrollmentStatus(enrollmentID, claimsFor(buddy), model.EnrollmentPaused)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentPaused, updated.Status)

	updated, err = e.enrollment.SetEnrollmentStatus(enrollmentID, claimsFor(buddy), model.EnrollmentActive)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentActive, updated.Status)

	// completed 不接受人工变更
	updated.Status = model.EnrollmentCompleted
	require.NoError(t, e.enrollmentRepo.Save(updated))
	_, err = e.enrollment.SetEnrollmentStatus(enrollmentID, claimsFor(buddy), model.EnrollmentDropped)
	assert.ErrorIs(t, err, util.ErrInvalidState)
}

func TestGetEnrollmentTreeForbiddenForOtherBuddy(t *testing.T) {
	e := newTestEnv(t)
	e.seedCurriculum(t, model.DomainBackend, 1, 1)
	buddy := e.createBuddy(t, "owner-buddy", model.DomainBackend, 0)
	other := e.createBuddy(t, "peeking-buddy", model.DomainBackend, 0)
	manager := e.createUser(t, "tree-manager", model.Manager, "")

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainBackend)
	require.NoError(t, err)

	_, err = e.enrollment.GetEnrollmentTree(result.Enrollment.ID, claimsFor(other))
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	tree, err := e.enrollment.GetEnrollmentTree(result.Enrollment.ID, claimsFor(manager))
	require.NoError(t, err)
	assert.NotNil(t, tree["enrollment"])
}

func TestRepairProgressFixesDrift(t *testing.T) {
	e := newTestEnv(t)
	e.seedCurriculum(t, model.DomainBackend, 1, 2)
	buddy := e.createBuddy(t, "drift-buddy", model.DomainBackend, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainBackend)
	require.NoError(t, err)

	progresses, err := e.enrollmentRepo.FindWeekProgressesByEnrollment(result.Enrollment.ID)
	require.NoError(t, err)
	require.Len(t, progresses, 1)

	// 人为制造漂移
	progresses[0].CompletedTasks = 99
	progresses[0].ProgressPercentage = 99
	require.NoError(t, e.enrollmentRepo.SaveWeekProgress(&progresses[0]))

	require.NoError(t, e.enrollment.RepairProgress(result.Enrollment.ID))

	repaired, err := e.enrollmentRepo.FindWeekProgressByID(progresses[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired.CompletedTasks)
	assert.Equal(t, 0, repaired.ProgressPercentage)
	assert.Equal(t, model.WeekNotStarted, repaired.Status)
}
