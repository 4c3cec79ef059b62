package locale

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/validate"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "pt-BR"

//go:embed translation
var translationFS embed.FS

// Message IDs. Each must exist in every file under translation/.
const (
	MsgRoleSelection      = "RoleSelection"
	MsgAdminLogin         = "AdminLogin"
	MsgWrongPassword      = "WrongPassword"
	MsgRoleSaveFailed     = "RoleSaveFailed"
	MsgRoleClearFailed    = "RoleClearFailed"
	MsgRoleRequired       = "RoleRequired"
	MsgAdminOnly          = "AdminOnly"
	MsgScanPrompt         = "ScanPrompt"
	MsgEmptyBarcode       = "EmptyBarcode"
	MsgPermissionDenied   = "PermissionDenied"
	MsgLookupNotFound     = "LookupNotFound"
	MsgLookupIncomplete   = "LookupIncomplete"
	MsgLookupFailed       = "LookupFailed"
	MsgLookupFailedDetail = "LookupFailedDetail"
	MsgBusy               = "Busy"
	MsgRequiredFields     = "RequiredFields"
	MsgSuggestionThanks   = "SuggestionThanks"
	MsgSubmitFailed       = "SubmitFailed"
	MsgReviewTitle        = "ReviewTitle"
	MsgNoPending          = "NoPending"
	MsgListFailed         = "ListFailed"
	MsgApproveSuccess     = "ApproveSuccess"
	MsgApproveFailed      = "ApproveFailed"

	LabelRole         = "LabelRole"
	LabelProduct      = "LabelProduct"
	LabelBarcode      = "LabelBarcode"
	LabelMaterial     = "LabelMaterial"
	LabelDisposalTips = "LabelDisposalTips"
	LabelRecycling    = "LabelRecycling"
	LabelImpact       = "LabelImpact"
	LabelSource       = "LabelSource"
	LabelSuggestionID = "LabelSuggestionID"
)

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle
	bundleErr  error
)

func loadBundle() (*i18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := i18n.NewBundle(language.MustParse(DefaultLanguage))
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		bundleErr = fs.WalkDir(translationFS, "translation", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			data, err := translationFS.ReadFile(path)
			if err != nil {
				return err
			}
			_, err = b.ParseMessageFileBytes(data, path)
			return err
		})
		bundle = b
	})
	return bundle, bundleErr
}

// Message is a user-facing notice: the stable ID plus its rendered text.
// Tests compare IDs; people read Text.
type Message struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Localizer renders message IDs in one language.
type Localizer struct {
	lang string
	l    *i18n.Localizer
}

// New returns a Localizer for lang (a BCP 47 tag such as "pt-BR" or "en-US").
// Unknown languages fall back to DefaultLanguage.
func New(lang string) (*Localizer, error) {
	b, err := loadBundle()
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	if _, err := language.Parse(lang); err != nil {
		return nil, fmt.Errorf("invalid language %q: %w", lang, err)
	}
	return &Localizer{lang: lang, l: i18n.NewLocalizer(b, lang, DefaultLanguage)}, nil
}

// MustNew is New for callers with a known-good language, such as tests.
func MustNew(lang string) *Localizer {
	l, err := New(lang)
	if err != nil {
		panic(err)
	}
	return l
}

// Language returns the tag the Localizer was created with.
func (l *Localizer) Language() string { return l.lang }

// T renders id with optional template data. Missing IDs render as the ID itself.
func (l *Localizer) T(id string, data ...map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	msg, err := l.l.Localize(cfg)
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) || msg == "" {
			slog.Warn("localizing message failed", "id", id, "lang", l.lang, "error", err)
			return id
		}
	}
	return msg
}

// Message renders id into a Message.
func (l *Localizer) Message(id string, data ...map[string]any) Message {
	return Message{ID: id, Text: l.T(id, data...)}
}

// Cause renders id with err as its {{.Cause}}.
func (l *Localizer) Cause(id string, err error) Message {
	return l.Message(id, map[string]any{"Cause": err.Error()})
}

// FieldLabel returns the display name of a Draft field.
func (l *Localizer) FieldLabel(f schema.Field) string {
	switch f {
	case schema.FieldBarcode:
		return l.T("FieldBarcode")
	case schema.FieldProductName:
		return l.T("FieldProductName")
	case schema.FieldMaterial:
		return l.T("FieldMaterial")
	}
	return string(f)
}

// Validation renders a ValidationError naming every missing field.
func (l *Localizer) Validation(err *validate.ValidationError) Message {
	if len(err.Missing) == 1 && err.Missing[0] == schema.FieldBarcode {
		return l.Message(MsgEmptyBarcode)
	}
	names := make([]string, len(err.Missing))
	for i, f := range err.Missing {
		names[i] = l.FieldLabel(f)
	}
	return l.Message(MsgRequiredFields, map[string]any{"Fields": strings.Join(names, ", ")})
}
