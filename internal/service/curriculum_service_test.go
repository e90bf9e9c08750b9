package service

import (
	"testing"

	"mentorship_backend/internal/model"
	"mentorship_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRequiresAtLeastOneWeek(t *testing.T) {
	e := newTestEnv(t)
	manager := e.createUser(t, "pub-manager", model.Manager, "")

	curriculum, err := e.curriculum.CreateCurriculum(&CurriculumInput{
		Title:      "Empty curriculum",
		DomainRole: model.DomainQA,
	}, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CurriculumDraft, curriculum.Status)

	_, err = e.curriculum.Publish(curriculum.ID)
	assert.ErrorIs(t, err, util.ErrInvalidState)

	_, _, err = e.curriculum.AddWeek(curriculum.ID, &WeekInput{WeekNumber: 1, Title: "Week 1"})
	require.NoError(t, err)

	published, err := e.curriculum.Publish(curriculum.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CurriculumPublished, published.Status)
}

func TestAddWeekRejectsDuplicateNumber(t *testing.T) {
	e := newTestEnv(t)
	curriculum := e.seedCurriculum(t, model.DomainQA, 2, 1)

	_, _, err := e.curriculum.AddWeek(curriculum.ID, &WeekInput{WeekNumber: 2, Title: "dup"})
	assert.ErrorIs(t, err, util.ErrWeekNumberTaken)

	week, _, err := e.curriculum.AddWeek(curriculum.ID, &WeekInput{WeekNumber: 3, Title: "ok"})
	require.NoError(t, err)
	assert.Equal(t, 3, week.WeekNumber)

	// totalWeeks 跟着最大周序号走
	reloaded, err := e.curriculumRepo.FindByID(curriculum.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.TotalWeeks)
}

func TestAddWeekPropagatesToActiveEnrollments(t *testing.T) {
	e := newTestEnv(t)
	curriculum := e.seedCurriculum(t, model.DomainQA, 1, 1)
	buddy := e.createBuddy(t, "prop-buddy", model.DomainQA, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainQA)
	require.NoError(t, err)

	_, report, err := e.curriculum.AddWeek(curriculum.ID, &WeekInput{WeekNumber: 2, Title: "Week 2"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.SyncedEnrollments)

	progresses, err := e.enrollmentRepo.FindWeekProgressesByEnrollment(result.Enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, progresses, 2)
}

func TestAddTaskTemplatePropagates(t *testing.T) {
	e := newTestEnv(t)
	curriculum := e.seedCurriculum(t, model.DomainQA, 1, 1)
	buddy := e.createBuddy(t, "tmpl-buddy", model.DomainQA, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainQA)
	require.NoError(t, err)

	weeks, err := e.curriculumRepo.FindWeeksByCurriculum(curriculum.ID)
	require.NoError(t, err)

	template, report, err := e.curriculum.AddTaskTemplate(weeks[0].ID, &TemplateInput{
		Title: "extra task",
		Resources: []model.ResourceDescriptor{
			{URL: "https://example.com/guide", Type: "doc", Label: "指南"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.SyncedEnrollments)

	decoded := template.DecodeResources()
	require.Len(t, decoded, 1)
	assert.Equal(t, "https://example.com/guide", decoded[0].URL)

	assignments, err := e.assignmentRepo.FindByEnrollment(result.Enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 2)
}

func TestUpdateTaskTemplateReportsAffectedOnly(t *testing.T) {
	e := newTestEnv(t)
	curriculum := e.seedCurriculum(t, model.DomainQA, 1, 1)
	buddy := e.createBuddy(t, "affected-buddy", model.DomainQA, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainQA)
	require.NoError(t, err)

	weeks, err := e.curriculumRepo.FindWeeksByCurriculum(curriculum.ID)
	require.NoError(t, err)
	templates, err := e.curriculumRepo.FindTemplatesByWeek(weeks[0].ID)
	require.NoError(t, err)

	_, report, err := e.curriculum.UpdateTaskTemplate(templates[0].ID, &TemplateInput{Title: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.AffectedCount)

	// 分配本身没有被动过
	assignments, err := e.assignmentRepo.FindByEnrollment(result.Enrollment.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, model.AssignmentNotStarted, assignments[0].Status)
}

func TestArchivePreservesEnrollments(t *testing.T) {
	e := newTestEnv(t)
	curriculum := e.seedCurriculum(t, model.DomainQA, 1, 1)
	buddy := e.createBuddy(t, "archive-buddy", model.DomainQA, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainQA)
	require.NoError(t, err)

	archived, err := e.curriculum.Archive(curriculum.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CurriculumArchived, archived.Status)
	assert.False(t, archived.IsActive)

	// 报名与任务分配原样保留
	enrollment, err := e.enrollmentRepo.FindByID(result.Enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentActive, enrollment.Status)

	assignments, err := e.assignmentRepo.FindByEnrollment(enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 1)

	// 归档后不可再报名
	late := e.createBuddy(t, "late-buddy", model.DomainQA, 0)
	_, err = e.enrollment.EnrollByCurriculumID(late.ID, curriculum.ID)
	assert.ErrorIs(t, err, util.ErrCurriculumNotPublished)
}

func TestDeleteWeekSyncsThenRemovesRows(t *testing.T) {
	e := newTestEnv(t)
	curriculum := e.seedCurriculum(t, model.DomainQA, 2, 1)
	buddy := e.createBuddy(t, "delweek-buddy", model.DomainQA, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainQA)
	require.NoError(t, err)

	weeks, err := e.curriculumRepo.FindWeeksByCurriculum(curriculum.ID)
	require.NoError(t, err)

	report, err := e.curriculum.DeleteWeek(weeks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DeletedCount)
	assert.Equal(t, 0, report.PreservedCount)

	remaining, err := e.curriculumRepo.FindWeeksByCurriculum(curriculum.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	assignments, err := e.assignmentRepo.FindByEnrollment(result.Enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 1)

	// 删掉的周序号可以复用
	_, _, err = e.curriculum.AddWeek(curriculum.ID, &WeekInput{WeekNumber: 2, Title: "rebuilt"})
	assert.NoError(t, err)
}
