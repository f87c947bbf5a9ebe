package providers

import (
	"github.com/polisbot/polisbot/internal/providers/messaging"
	"github.com/polisbot/polisbot/internal/providers/pdf"
	"github.com/polisbot/polisbot/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	messaging.Module,
	pdf.Module,
	storage.Module,
)
