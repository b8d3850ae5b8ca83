package controller

import (
	"errors"
	"io"

	"ai-studynotes-core/internal/dto"
	"ai-studynotes-core/internal/gateway"
	"ai-studynotes-core/internal/mapper"
	"ai-studynotes-core/internal/pkg/serverutils"
	"ai-studynotes-core/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Index(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Processing(ctx *fiber.Ctx) error
	Completed(ctx *fiber.Ctx) error
	Progress(ctx *fiber.Ctx) error
	GenerateQuiz(ctx *fiber.Ctx) error
	GenerateExplanation(ctx *fiber.Ctx) error
	GenerateAdditionalContent(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService service.INoteService
	mapper      *mapper.NoteMapper
}

func NewNoteController(noteService service.INoteService, noteMapper *mapper.NoteMapper) INoteController {
	return &noteController{
		noteService: noteService,
		mapper:      noteMapper,
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/note/v1")
	h.Post("upload", c.Upload)
	h.Get("", c.Index)
	h.Get("processing", c.Processing)
	h.Get("completed", c.Completed)
	h.Get("progress", c.Progress)
	h.Post("additional-content", c.GenerateAdditionalContent)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
	h.Post(":id/quiz", c.GenerateQuiz)
	h.Post(":id/explanation", c.GenerateExplanation)
}

// Upload accepts a multipart batch under the "files" field. The response
// always lists all three outcomes per file; only a batch with zero successes
// is an error.
func (c *noteController) Upload(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected multipart form data")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No files provided under field 'files'")
	}

	files := make([]gateway.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read uploaded file "+header.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read uploaded file "+header.Filename)
		}
		files = append(files, gateway.UploadFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	res, err := c.noteService.UploadNotes(ctx.Context(), sessionId, files)
	if err != nil {
		if errors.Is(err, service.ErrAllUploadsFailed) {
			// Per-file reasons still go out so the client can show them.
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.BaseResponse[*dto.UploadNotesResponse]{
				Code:    fiber.StatusBadRequest,
				Message: "All uploads failed",
				Data:    res,
			})
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload notes", res))
}

func (c *noteController) Index(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	notes, err := c.noteService.FetchNotes(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success fetch notes", c.mapper.ToResponses(notes)))
}

func (c *noteController) Show(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid note id")
	}

	note, err := c.noteService.FetchNote(ctx.Context(), sessionId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show note", c.mapper.ToResponse(note)))
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid note id")
	}

	if err := c.noteService.DeleteNote(ctx.Context(), sessionId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete note", nil))
}

func (c *noteController) Processing(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)
	notes := c.noteService.Processing(sessionId)
	return ctx.JSON(serverutils.SuccessResponse("Success fetch processing notes", c.mapper.ToResponses(notes)))
}

func (c *noteController) Completed(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)
	notes := c.noteService.Completed(sessionId)
	return ctx.JSON(serverutils.SuccessResponse("Success fetch completed notes", c.mapper.ToResponses(notes)))
}

func (c *noteController) Progress(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	p := c.noteService.Progress(sessionId)
	res := dto.ProgressResponse{
		Percent:      p.Percent,
		Monitored:    p.Monitored,
		Completed:    p.Completed,
		AllCompleted: p.AllCompleted,
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetch progress", res))
}

func (c *noteController) GenerateQuiz(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid note id")
	}

	var req dto.GenerateQuizRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
	}

	res, err := c.noteService.GenerateQuiz(ctx.Context(), sessionId, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate quiz", res))
}

func (c *noteController) GenerateExplanation(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid note id")
	}

	explanation, err := c.noteService.GenerateExplanation(ctx.Context(), sessionId, id)
	if err != nil {
		return err
	}

	res := dto.GenerateExplanationResponse{Id: id}
	if explanation != nil {
		res.Explanation = *explanation
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generate explanation", res))
}

func (c *noteController) GenerateAdditionalContent(ctx *fiber.Ctx) error {
	sessionId := serverutils.SessionId(ctx)

	var req dto.GenerateAdditionalContentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noteService.GenerateAdditionalContent(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate additional content", res))
}
