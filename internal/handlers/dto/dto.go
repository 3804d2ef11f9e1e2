package dto

import (
	"time"

	"planvista/internal/models/record"
	"planvista/internal/models/schedule"
	"planvista/internal/models/task"
)

type CreateTaskRequest struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type RenameTaskRequest struct {
	Name string `json:"name"`
}

type TaskResponse struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{ID: t.ID, UserID: t.UserID, Name: t.Name}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type CreateScheduleRequest struct {
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TaskName  string    `json:"task_name"`
	TaskTime  int       `json:"task_time"`
	Memo      string    `json:"memo"`
}

type UpdateScheduleRequest struct {
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TaskName  string    `json:"task_name"`
	TaskTime  int       `json:"task_time"`
	Memo      string    `json:"memo"`
}

type ScheduleResponse struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	Title              string     `json:"title"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	TaskName           string     `json:"task_name"`
	TaskTime           int        `json:"task_time"`
	Memo               string     `json:"memo"`
	IsSyncedFromGoogle bool       `json:"is_synced_from_google"`
	GoogleEventID      *string    `json:"google_event_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
	IsEditable         bool       `json:"is_editable"`
	IsDeletable        bool       `json:"is_deletable"`
}

func FromSchedule(s *schedule.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:                 s.ID,
		UserID:             s.UserID,
		Title:              s.Title,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		TaskName:           s.TaskName,
		TaskTime:           s.TaskTime,
		Memo:               s.Memo,
		IsSyncedFromGoogle: s.IsSyncedFromGoogle,
		GoogleEventID:      s.GoogleEventID,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		IsEditable:         s.IsEditable(),
		IsDeletable:        s.IsDeletable(),
	}
}

func FromScheduleList(schedules []*schedule.Schedule) []ScheduleResponse {
	result := make([]ScheduleResponse, len(schedules))
	for i, s := range schedules {
		result[i] = FromSchedule(s)
	}
	return result
}

type StartRecordRequest struct {
	UserID int64  `json:"user_id"`
	TaskID int64  `json:"task_id"`
	Memo   string `json:"memo"`
}

type EndRecordRequest struct {
	ScheduleID *int64 `json:"schedule_id,omitempty"`
}

type UpdateRecordRequest struct {
	TaskID       int64     `json:"task_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Memo         string    `json:"memo"`
	ChangeReason string    `json:"change_reason"`
}

type RecordResponse struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	ScheduleID *int64     `json:"schedule_id,omitempty"`
	TaskID     int64      `json:"task_id"`
	TaskName   string     `json:"task_name"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	Memo       string     `json:"memo"`
	IsActive   bool       `json:"is_active"`
}

func FromRecord(rec *record.Record) RecordResponse {
	return RecordResponse{
		ID:         rec.ID,
		UserID:     rec.UserID,
		ScheduleID: rec.ScheduleID,
		TaskID:     rec.TaskID,
		TaskName:   rec.TaskName,
		StartTime:  rec.StartTime,
		EndTime:    rec.EndTime,
		Memo:       rec.Memo,
		IsActive:   rec.IsActive(),
	}
}

func FromRecordList(records []*record.Record) []RecordResponse {
	result := make([]RecordResponse, len(records))
	for i, rec := range records {
		result[i] = FromRecord(rec)
	}
	return result
}

type SyncRequest struct {
	UserID      int64  `json:"user_id"`
	AccessToken string `json:"access_token"`
}
