package model

import (
	"strings"
	"time"
)

// CourseLevel はMCER（ヨーロッパ言語共通参照枠）のレベルを表す。
type CourseLevel string

const (
	CourseLevelA1 CourseLevel = "A1"
	CourseLevelA2 CourseLevel = "A2"
	CourseLevelB1 CourseLevel = "B1"
	CourseLevelB2 CourseLevel = "B2"
	CourseLevelC1 CourseLevel = "C1"
)

// CourseModality は授業形態を表す。
type CourseModality string

const (
	// CourseModalitySync はライブ授業（同期）を表す。
	CourseModalitySync CourseModality = "synchronous"
	// CourseModalityAsync はオンデマンド授業（非同期）を表す。
	CourseModalityAsync CourseModality = "asynchronous"
)

// CourseStatus はコースの公開状態を表す。
type CourseStatus string

const (
	CourseStatusActive   CourseStatus = "active"
	CourseStatusInactive CourseStatus = "inactive"
)

// Course は語学コースを表す。
// Nameは「言語 - レベル」形式（例: "Inglés - A1"）を慣例とし、
// カタログの言語別グルーピングに使用される。
type Course struct {
	ID       string
	Name     string
	Level    CourseLevel
	Modality CourseModality
	Status   CourseStatus
}

// Language はコース名から言語部分を取り出す。
// 「言語 - レベル」形式でない場合はコース名全体を返す。
func (c *Course) Language() string {
	if i := strings.Index(c.Name, " - "); i >= 0 {
		return strings.TrimSpace(c.Name[:i])
	}
	return c.Name
}

// EnrollmentStatus は受講登録の状態を表す。
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
	EnrollmentStatusFinished  EnrollmentStatus = "finished"
)

// Enrollment は受講者とコースの受講登録を表す。
// 同一ユーザー・同一コースのactiveな登録は高々1件。
type Enrollment struct {
	ID         string
	UserID     string
	CourseID   string
	EnrolledAt time.Time
	Status     EnrollmentStatus
}

// ClassSessionKind は授業回の種別を表す。
type ClassSessionKind string

const (
	ClassSessionKindSync  ClassSessionKind = "synchronous"
	ClassSessionKindAsync ClassSessionKind = "asynchronous"
)

// ClassSession はコースの1授業回を表す。
type ClassSession struct {
	ID          string
	CourseID    string
	StartsAt    time.Time
	MeetingURL  string
	Kind        ClassSessionKind
	MaterialURL string
}

// ContentKind は教材の種別を表す。
type ContentKind string

const (
	ContentKindPDF   ContentKind = "pdf"
	ContentKindVideo ContentKind = "video"
	ContentKindAudio ContentKind = "audio"
	ContentKindLink  ContentKind = "link"
)

// CourseContent は講師がコースに登録した教材を表す。
type CourseContent struct {
	ID         string
	CourseID   string
	Title      string
	Kind       ContentKind
	FileURL    string
	UploadedBy string
	CreatedAt  time.Time
}

// Assessment はコースの評価（試験・課題）を表す。
type Assessment struct {
	ID          string
	CourseID    string
	Name        string
	Description string
	Date        time.Time
}

// AssessmentResult は受講者の評価結果を表す。
// Scoreは0.00〜100.00のスケール。
type AssessmentResult struct {
	ID           string
	UserID       string
	AssessmentID string
	Score        float64
	Feedback     string
	RecordedAt   time.Time
}
