package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"hoa-advisor-go/internal/model"
	"hoa-advisor-go/internal/repository"
	"hoa-advisor-go/pkg/kafka"
	"hoa-advisor-go/pkg/log"
	"hoa-advisor-go/pkg/storage"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ReportInput 是一条匿名举报。
type ReportInput struct {
	Address     string
	Description string
	Notes       string
	HasPhoto    bool
	Photo       []byte
	PhotoSize   int64
}

// ReportService 处理违规举报的提交与后台管理。
type ReportService interface {
	Create(ctx context.Context, in ReportInput) (*model.ViolationReport, error)
	List(ctx context.Context) ([]model.ViolationReport, error)
	Update(ctx context.Context, id string, status, adminNotes *string) (*model.ViolationReport, error)
	Export(ctx context.Context, w io.Writer) error
}

type reportService struct {
	reports repository.ReportRepository
	blobs   storage.Store
	events  kafka.Publisher
}

// NewReportService 创建一个新的 ReportService 实例。
func NewReportService(reports repository.ReportRepository, blobs storage.Store, events kafka.Publisher) ReportService {
	return &reportService{reports: reports, blobs: blobs, events: events}
}

func (s *reportService) Create(ctx context.Context, in ReportInput) (*model.ViolationReport, error) {
	address := normalizeInput(in.Address, MaxAddressChars)
	description := normalizeInput(in.Description, MaxDescriptionChars)
	notes := normalizeInput(in.Notes, MaxNotesChars)
	if address == "" || description == "" {
		return nil, NewInputError("Property address and description are required.")
	}

	report := &model.ViolationReport{
		PropertyAddress: address,
		Description:     description,
		ReporterNotes:   model.StringPtr(notes),
	}

	var stored *storedImage
	if in.HasPhoto {
		mime, err := validateUpload(in.Photo, in.PhotoSize)
		if err != nil {
			return nil, NewInputError("Photo: %s", err.Error())
		}
		stored, err = saveImage(ctx, s.blobs, "reports", in.Photo, mime)
		if err != nil {
			return nil, err
		}
		report.PhotoPath = &stored.key
		report.ThumbnailPath = model.StringPtr(stored.thumbKey)
	}

	if err := s.reports.Create(ctx, report); err != nil {
		discardImage(s.blobs, stored)
		return nil, fmt.Errorf("保存举报失败: %w", err)
	}
	log.Infow("收到违规举报", "report_id", report.ID, "photo", in.HasPhoto)

	if err := s.events.Publish(ctx, kafka.Event{Type: kafka.EventReportCreated, ID: report.ID}); err != nil {
		log.Warnf("发布 report.created 事件失败: %v", err)
	}
	return report, nil
}

func (s *reportService) List(ctx context.Context) ([]model.ViolationReport, error) {
	return s.reports.List(ctx)
}

// Update 只修改请求中给出的字段。
func (s *reportService) Update(ctx context.Context, id string, status, adminNotes *string) (*model.ViolationReport, error) {
	var newStatus *model.ReportStatus
	if status != nil {
		st := model.ReportStatus(strings.TrimSpace(*status))
		if !st.Valid() {
			return nil, NewInputError("Invalid status. Must be one of: pending, investigating, resolved.")
		}
		newStatus = &st
	}
	report, err := s.reports.Update(ctx, id, newStatus, adminNotes)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("更新举报失败: %w", err)
	}
	log.Infow("举报已更新", "report_id", id, "status", report.Status)
	return report, nil
}

var exportHeaders = []string{"ID", "Created", "Status", "Property Address", "Description", "Reporter Notes", "Admin Notes", "Photo"}

// Export 将全部举报写成 xlsx 表格。
func (s *reportService) Export(ctx context.Context, w io.Writer) error {
	reports, err := s.reports.List(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Reports"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return err
	}
	for i, r := range reports {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.ID,
			model.FormatTime(r.CreatedAt),
			string(r.Status),
			r.PropertyAddress,
			r.Description,
			model.Deref(r.ReporterNotes),
			model.Deref(r.AdminNotes),
			model.Deref(r.PhotoPath),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}
