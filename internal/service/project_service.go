package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
	"github.com/smetapro/contractor-backend/internal/repository"
)

// fallbackServiceType используется, когда вид работ не определился
// по описаниям позиций счёта.
const fallbackServiceType = "general"

// ProjectStore описывает взаимодействие сервиса с хранилищем проектов.
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListByContractor(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Project, error)
	AdvanceToInProgress(ctx context.Context, id uuid.UUID) (bool, error)
}

// CatalogStore читает справочник видов работ.
type CatalogStore interface {
	ListActive(ctx context.Context) ([]models.ServiceCatalogItem, error)
}

// InvoiceProjectLinker привязывает проект к счёту и читает его позиции.
type InvoiceProjectLinker interface {
	AttachProject(ctx context.Context, invoiceID, projectID uuid.UUID) error
	ListItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error)
}

// ProjectService ведёт жизненный цикл проектов.
type ProjectService struct {
	projects ProjectStore
	catalog  CatalogStore
	invoices InvoiceProjectLinker
	logger   *logrus.Logger
}

// NewProjectService создаёт сервис проектов.
func NewProjectService(projects ProjectStore, catalog CatalogStore, invoices InvoiceProjectLinker, logger *logrus.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		catalog:  catalog,
		invoices: invoices,
		logger:   logger,
	}
}

// HandlePaymentRecorded реагирует на записанный платёж.
// Для счёта с проектом ожидающий проект переводится в работу.
// Для счёта без проекта создаётся новый проект в статусе in_progress
// и привязывается к счёту. Операция идемпотентна относительно
// повторных платежей по одному счёту.
func (s *ProjectService) HandlePaymentRecorded(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ProjectID != nil {
		advanced, err := s.projects.AdvanceToInProgress(ctx, *invoice.ProjectID)
		if err != nil {
			return err
		}
		if advanced {
			s.logger.WithFields(logrus.Fields{
				"project_id": *invoice.ProjectID,
				"invoice_id": invoice.ID,
			}).Info("проект переведён в работу после первого платежа")
		}
		return nil
	}

	items, err := s.invoices.ListItems(ctx, invoice.ID)
	if err != nil {
		return err
	}

	budget := invoice.Total
	project := &models.Project{
		ContractorID: invoice.ContractorID,
		ClientID:     invoice.ClientID,
		Name:         "Проект по счёту " + invoice.Number,
		Status:       models.ProjectStatusInProgress,
		ServiceType:  s.inferServiceType(ctx, items),
		Budget:       &budget,
		InvoiceID:    &invoice.ID,
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return err
	}
	if err := s.invoices.AttachProject(ctx, invoice.ID, project.ID); err != nil {
		return err
	}
	invoice.ProjectID = &project.ID

	s.logger.WithFields(logrus.Fields{
		"project_id":   project.ID,
		"invoice_id":   invoice.ID,
		"service_type": project.ServiceType,
	}).Info("создан проект по оплаченному счёту")

	return nil
}

// Get возвращает проект подрядчика.
func (s *ProjectService) Get(ctx context.Context, contractorID, id uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, err
	}
	if project.ContractorID != contractorID {
		return nil, apperror.ErrForbidden
	}
	return project, nil
}

// List возвращает проекты подрядчика.
func (s *ProjectService) List(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Project, error) {
	if status != "" {
		if _, ok := models.ValidProjectStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус проекта")
		}
	}
	limit, offset = normalizePage(limit, offset)
	return s.projects.ListByContractor(ctx, contractorID, status, limit, offset)
}

// inferServiceType определяет вид работ по описаниям позиций счёта.
// Эвристика: регистронезависимый поиск названия или ключевых слов
// каталога в тексте позиций. Ошибка чтения каталога не фатальна,
// используется запасной вид работ.
func (s *ProjectService) inferServiceType(ctx context.Context, items []models.InvoiceLineItem) string {
	catalog, err := s.catalog.ListActive(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("не удалось прочитать каталог услуг, используется general")
		return fallbackServiceType
	}

	var text strings.Builder
	for _, item := range items {
		text.WriteString(strings.ToLower(item.Description))
		text.WriteString(" ")
	}
	haystack := text.String()

	for _, entry := range catalog {
		if entry.Slug == fallbackServiceType {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(entry.Name)) {
			return entry.Slug
		}
		if entry.Keywords == nil {
			continue
		}
		for _, keyword := range strings.Split(*entry.Keywords, ",") {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(haystack, keyword) {
				return entry.Slug
			}
		}
	}

	return fallbackServiceType
}
