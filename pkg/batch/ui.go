package batch

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/validation"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/dixieflatline76/Retouch/pkg/transformer/gemini"
	"github.com/dixieflatline76/Retouch/pkg/ui/setting"
	"github.com/dixieflatline76/Retouch/util"
	"github.com/dixieflatline76/Retouch/util/log"
)

// CreateTrayMenuItems creates the menu items for the tray menu
func (bp *Plugin) CreateTrayMenuItems() []*fyne.MenuItem {
	items := []*fyne.MenuItem{}

	bp.runMenuItem = bp.manager.CreateMenuItem("Run Batch...", func() {
		bp.promptAndRun()
	}, "run.png")
	items = append(items, bp.runMenuItem)

	bp.cancelMenuItem = bp.manager.CreateMenuItem("Cancel Run", func() {
		go bp.CancelRun()
	}, "cancel.png")
	bp.cancelMenuItem.Disabled = true
	items = append(items, bp.cancelMenuItem)

	items = append(items, fyne.NewMenuItemSeparator())
	items = append(items, bp.manager.CreateMenuItem("Open Output Folder", func() {
		go bp.OpenOutputFolder()
	}, "folder.png"))

	return items
}

// ShowWindow brings the run monitor window to the front.
func (bp *Plugin) ShowWindow() {
	if bp.manager != nil {
		bp.manager.ShowMainWindow()
	}
}

// promptAndRun gates on configuration, then walks the user through folder
// selection and starts the run. Cancelling the selector starts nothing.
func (bp *Plugin) promptAndRun() {
	if !bp.cfg.HasAPIKey() {
		log.Print("Run requested without an API key")
		bp.manager.NotifyUser("API Key Required", "Add your Gemini API key in Settings before running a batch.")
		return
	}
	if bp.store.Status() == RunRunning {
		bp.manager.NotifyUser("Batch Already Running", "Cancel the current run before starting another.")
		return
	}

	bp.pickFolder(func(folder string) {
		go func() {
			if err := bp.StartRunForFolder(folder); err != nil {
				bp.manager.NotifyUser("Cannot Start Batch", err.Error())
			}
		}()
	})
}

// pickFolder asks the user for a source folder, preferring the native picker
// where one exists. The callback fires only on a successful selection.
func (bp *Plugin) pickFolder(onPicked func(folder string)) {
	if hasNativeFolderDialog() {
		go func() {
			if folder, ok := pickFolderNative(bp.cfg.GetLastFolder()); ok {
				onPicked(folder)
			}
		}()
		return
	}

	win := bp.mainWindow
	if win == nil {
		log.Print("No window available for the folder dialog")
		bp.manager.ShowMainWindow()
		return
	}
	d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			log.Printf("Folder dialog failed: %v", err)
			return
		}
		if uri == nil {
			return // Selection cancelled, nothing to do
		}
		onPicked(uri.Path())
	}, win)
	d.Resize(fyne.NewSize(700, 500))
	d.Show()
}

// OutputDir resolves the output directory of the most recent run, preferring
// the active run's folder over the remembered one. It returns an empty
// string when no batch has run yet.
func (bp *Plugin) OutputDir() string {
	folder := bp.cfg.GetLastFolder()
	if run, ok := bp.store.Current(); ok {
		folder = run.FolderPath
	}
	if folder == "" {
		return ""
	}
	return NewFileManager(folder).OutputDir()
}

// OpenOutputFolder opens the output directory of the most recent run in the
// system file browser.
func (bp *Plugin) OpenOutputFolder() {
	outputDir := bp.OutputDir()
	if outputDir == "" {
		bp.manager.NotifyUser("No Output Yet", "Run a batch first.")
		return
	}
	if _, err := os.Stat(outputDir); err != nil {
		bp.manager.NotifyUser("No Output Yet", "The output folder has not been created.")
		return
	}
	fileURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(outputDir)}
	if err := bp.manager.OpenURL(fileURL); err != nil {
		log.Printf("Failed to open output folder: %v", err)
	}
}

// CreateMainContent builds the run monitor view: a toolbar, a progress bar
// and the task list.
func (bp *Plugin) CreateMainContent(win fyne.Window) fyne.CanvasObject {
	bp.mainWindow = win

	statusLabel := widget.NewLabel("No batch run yet")
	progress := widget.NewProgressBar()
	progress.Hide()

	taskList := bp.createTaskList()
	bp.refreshList = func() {
		fyne.Do(taskList.Refresh)
	}

	runButton := widget.NewButtonWithIcon("Run Batch...", theme.MediaPlayIcon(), func() {
		bp.promptAndRun()
	})
	cancelButton := widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() {
		go bp.CancelRun()
	})
	cancelButton.Disable()

	toolbar := container.NewHBox(runButton, cancelButton, layout.NewSpacer(), statusLabel)
	content := container.NewBorder(container.NewVBox(toolbar, progress), nil, nil, nil, taskList)

	go bp.watchRunUpdates(statusLabel, progress, taskList, runButton, cancelButton)
	return content
}

// createTaskList builds the list widget showing one row per image task.
func (bp *Plugin) createTaskList() *widget.List {
	return widget.NewList(
		func() int {
			run, ok := bp.store.Current()
			if !ok {
				return 0
			}
			return len(run.Tasks)
		},
		func() fyne.CanvasObject {
			thumb := canvas.NewImageFromResource(theme.FileImageIcon())
			thumb.FillMode = canvas.ImageFillContain
			thumb.SetMinSize(fyne.NewSize(48, 48))
			nameLabel := widget.NewLabel("Placeholder")
			nameLabel.TextStyle = fyne.TextStyle{Bold: true}
			statusLabel := widget.NewLabel("Placeholder")
			return container.NewHBox(thumb, nameLabel, layout.NewSpacer(), statusLabel)
		},
		func(i int, o fyne.CanvasObject) {
			run, ok := bp.store.Current()
			if !ok || i >= len(run.Tasks) {
				return // Safety check
			}
			task := run.Tasks[i]

			c := o.(*fyne.Container)
			thumb := c.Objects[0].(*canvas.Image)
			nameLabel := c.Objects[1].(*widget.Label)
			statusLabel := c.Objects[3].(*widget.Label)

			nameLabel.SetText(filepath.Base(task.SourcePath))
			statusLabel.SetText(taskStatusText(task))

			if img := bp.thumbnailFor(task.SourcePath); img != nil {
				thumb.Resource = nil
				thumb.Image = img
			} else {
				// Recycled rows must not show another task's thumbnail
				thumb.Image = nil
				thumb.Resource = theme.FileImageIcon()
			}
			thumb.Refresh()
		},
	)
}

// taskStatusText renders one task's state for its list row.
func taskStatusText(task Task) string {
	switch task.Status {
	case TaskRunning:
		if task.Attempts > 1 {
			return fmt.Sprintf("Processing (attempt %d)", task.Attempts)
		}
		return "Processing"
	case TaskSucceeded:
		if task.Skipped {
			return "Skipped, output exists"
		}
		return "Done: " + filepath.Base(task.OutputPath)
	case TaskFailed:
		return util.Truncate(task.ErrMessage, MaxErrMsgLength)
	default:
		return "Queued"
	}
}

// thumbnailFor returns a cached square thumbnail, kicking off generation the
// first time a path is seen. Returns nil until the thumbnail is ready.
func (bp *Plugin) thumbnailFor(path string) image.Image {
	bp.thumbMutex.Lock()
	img, seen := bp.thumbs[path]
	if !seen {
		bp.thumbs[path] = nil // Reserve the slot so only one generator runs
	}
	bp.thumbMutex.Unlock()
	if seen {
		return img
	}

	go func() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Debugf("Thumbnail read failed for %s: %v", path, err)
			return
		}
		ctx := context.Background()
		decoded, _, err := bp.imgProcessor.DecodeImage(ctx, data, "")
		if err != nil {
			log.Debugf("Thumbnail decode failed for %s: %v", path, err)
			return
		}
		t, err := bp.imgProcessor.Thumbnail(ctx, decoded, ThumbnailSize)
		if err != nil {
			return
		}

		bp.thumbMutex.Lock()
		bp.thumbs[path] = t
		bp.thumbMutex.Unlock()
		if bp.refreshList != nil {
			bp.refreshList()
		}
	}()
	return nil
}

// watchRunUpdates keeps the run view in sync with the store. The update
// channel is taken before each render so no transition in between is missed.
func (bp *Plugin) watchRunUpdates(statusLabel *widget.Label, progress *widget.ProgressBar, taskList *widget.List, runButton, cancelButton *widget.Button) {
	for {
		updated := bp.store.GetUpdateChannel()
		bp.syncRunView(statusLabel, progress, taskList, runButton, cancelButton)
		<-updated
	}
}

// syncRunView renders the current run state into the view widgets. Safe to
// call from any goroutine.
func (bp *Plugin) syncRunView(statusLabel *widget.Label, progress *widget.ProgressBar, taskList *widget.List, runButton, cancelButton *widget.Button) {
	run, ok := bp.store.Current()
	if !ok {
		// The store was reset, clear the view
		fyne.Do(func() {
			statusLabel.SetText("No batch run yet")
			progress.Hide()
			runButton.Enable()
			cancelButton.Disable()
			taskList.Refresh()
		})
		return
	}
	succeeded, failed, pending, running := bp.store.Counts()
	total := len(run.Tasks)
	done := succeeded + failed

	isRunning := run.Status == RunRunning
	if bp.runMenuItem != nil {
		bp.runMenuItem.Disabled = isRunning
	}
	if bp.cancelMenuItem != nil {
		bp.cancelMenuItem.Disabled = !isRunning
	}

	fyne.Do(func() {
		switch run.Status {
		case RunRunning:
			statusLabel.SetText(fmt.Sprintf("Processing %d of %d...", done+running, total))
			if total > 0 {
				progress.SetValue(float64(done) / float64(total))
			}
			progress.Show()
			runButton.Disable()
			cancelButton.Enable()
		case RunCancelled:
			statusLabel.SetText(fmt.Sprintf("Cancelled: %d retouched, %d failed, %d not started", succeeded, failed, pending))
			progress.Hide()
			runButton.Enable()
			cancelButton.Disable()
		case RunCompleted:
			statusLabel.SetText(fmt.Sprintf("Completed: %d retouched, %d failed", succeeded, failed))
			progress.Hide()
			runButton.Enable()
			cancelButton.Disable()
		}
		taskList.Refresh()
		bp.manager.RefreshTrayMenu()
	})
}

// showMissingKeyNotice puts up a blocking notice that no API key is
// configured. Runs stay disabled until one is saved in Preferences.
func (bp *Plugin) showMissingKeyNotice() {
	log.Print("No Gemini API key configured")
	win := bp.mainWindow
	if win == nil {
		return
	}
	bp.manager.ShowMainWindow()
	fyne.Do(func() {
		dialog.ShowInformation("API Key Required",
			"A Gemini API key is required before images can be retouched.\nOpen Preferences from the tray menu and add your key.", win)
	})
}

// createPromptList builds the list widget for the prompt library.
func (bp *Plugin) createPromptList(sm setting.SettingsManager) *widget.List {
	var promptList *widget.List
	promptList = widget.NewList(
		func() int {
			return len(bp.cfg.GetPrompts())
		},
		func() fyne.CanvasObject {
			nameLabel := widget.NewLabel("Placeholder")
			nameLabel.TextStyle = fyne.TextStyle{Bold: true}
			activeCheck := widget.NewCheck("Active", nil)
			editButton := widget.NewButton("Edit", nil)
			deleteButton := widget.NewButton("Delete", nil)
			return container.NewHBox(nameLabel, layout.NewSpacer(), activeCheck, editButton, deleteButton)
		},
		func(i int, o fyne.CanvasObject) {
			prompts := bp.cfg.GetPrompts()
			if i >= len(prompts) {
				return // Safety check
			}
			// Capture the prompt itself, NOT the index 'i'.
			prompt := prompts[i]

			c := o.(*fyne.Container)
			nameLabel := c.Objects[0].(*widget.Label)
			activeCheck := c.Objects[2].(*widget.Check)
			editButton := c.Objects[3].(*widget.Button)
			deleteButton := c.Objects[4].(*widget.Button)

			label := prompt.Name
			if prompt.Description != "" {
				label = fmt.Sprintf("%s  (%s)", prompt.Name, prompt.Description)
			}
			nameLabel.SetText(label)

			active, _ := bp.cfg.GetActivePrompt()
			activeCheck.OnChanged = nil
			activeCheck.SetChecked(active.Name == prompt.Name)
			activeCheck.OnChanged = func(b bool) {
				if b {
					bp.cfg.SetActivePromptName(prompt.Name)
				} else {
					// The active prompt can only be replaced, not unset
					activeCheck.SetChecked(true)
				}
				promptList.Refresh()
			}

			editButton.OnTapped = func() {
				bp.showPromptDialog(sm, &prompt, promptList)
			}

			deleteButton.OnTapped = func() {
				d := dialog.NewConfirm("Please Confirm", fmt.Sprintf("Are you sure you want to delete %s?", prompt.Name), func(b bool) {
					if b {
						if err := bp.cfg.RemovePrompt(prompt.Name); err != nil {
							log.Printf("Failed to remove prompt: %v", err)
						}
						promptList.Refresh()
					}
				}, sm.GetSettingsWindow())
				d.Show()
			}
		},
	)
	return promptList
}

// showPromptDialog opens the editor for a new prompt (existing == nil) or an
// existing one.
func (bp *Plugin) showPromptDialog(sm setting.SettingsManager, existing *Prompt, promptList *widget.List) {
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Short unique name for this prompt")

	textEntry := widget.NewMultiLineEntry()
	textEntry.SetPlaceHolder("Instruction sent to the model. Placeholders like {background} are filled in at run time.")
	textEntry.Wrapping = fyne.TextWrapWord
	textEntry.SetMinRowsVisible(6)

	descEntry := widget.NewEntry()
	descEntry.SetPlaceHolder("Optional description shown in the library")

	formStatus := widget.NewLabel("")

	cancelButton := widget.NewButton("Cancel", nil)
	saveButton := widget.NewButton("Save", nil)
	saveButton.Disable() // Save only enables once the form validates

	editing := existing != nil
	if editing {
		nameEntry.SetText(existing.Name)
		nameEntry.Disable() // Names are stable, editing replaces the text only
		textEntry.SetText(existing.Text)
		descEntry.SetText(existing.Description)
	}

	formValidator := func() bool {
		if !editing {
			if err := nameEntry.Validate(); err != nil {
				formStatus.SetText(err.Error())
				formStatus.Importance = widget.DangerImportance
				formStatus.Refresh()
				return false
			}
			if _, err := bp.cfg.GetPrompt(nameEntry.Text); err == nil {
				formStatus.SetText("Duplicate prompt: this name already exists")
				formStatus.Importance = widget.DangerImportance
				formStatus.Refresh()
				return false
			}
		}

		if strings.TrimSpace(textEntry.Text) == "" {
			formStatus.SetText("Prompt text must not be empty")
			formStatus.Importance = widget.DangerImportance
			formStatus.Refresh()
			return false
		}

		formStatus.SetText("Everything looks good")
		formStatus.Importance = widget.SuccessImportance
		formStatus.Refresh()
		return true
	}

	nameEntry.Validator = validation.NewRegexp(PromptNameRegexp, fmt.Sprintf("Name must be 3 to %d letters, digits, spaces or dashes", MaxPromptNameLength))

	newEntryLengthChecker := func(entry *widget.Entry, maxLen int) func(string) {
		return func(s string) {
			if len(s) > maxLen {
				entry.SetText(s[:maxLen]) // Truncate to max length
				return                    // Stop further processing
			}
			if formValidator() {
				saveButton.Enable()
			} else {
				saveButton.Disable()
			}
		}
	}
	nameEntry.OnChanged = newEntryLengthChecker(nameEntry, MaxPromptNameLength)
	textEntry.OnChanged = newEntryLengthChecker(textEntry, MaxPromptTextLength)

	c := container.NewVBox()
	c.Add(sm.CreateSettingTitleLabel("Name:"))
	c.Add(nameEntry)
	c.Add(sm.CreateSettingTitleLabel("Prompt Text:"))
	c.Add(textEntry)
	c.Add(sm.CreateSettingTitleLabel("Description:"))
	c.Add(descEntry)
	c.Add(formStatus)
	c.Add(widget.NewSeparator())
	c.Add(container.NewHBox(cancelButton, layout.NewSpacer(), saveButton))

	title := "New Prompt"
	if editing {
		title = "Edit Prompt"
	}
	d := dialog.NewCustomWithoutButtons(title, c, sm.GetSettingsWindow())
	d.Resize(fyne.NewSize(700, 450))

	saveButton.OnTapped = func() {
		var err error
		if editing {
			err = bp.cfg.UpdatePrompt(nameEntry.Text, textEntry.Text, descEntry.Text, existing.UseCase)
		} else {
			err = bp.cfg.AddPrompt(nameEntry.Text, textEntry.Text, descEntry.Text, "")
		}
		if err != nil {
			formStatus.SetText(err.Error())
			formStatus.Importance = widget.DangerImportance
			formStatus.Refresh()
			return // Don't close the dialog
		}
		promptList.Refresh()
		d.Hide()
	}

	cancelButton.OnTapped = func() {
		d.Hide()
	}

	d.Show()
}

// createPromptPanel builds the prompt library management panel.
func (bp *Plugin) createPromptPanel(sm setting.SettingsManager) *fyne.Container {
	promptList := bp.createPromptList(sm)
	sm.RegisterRefreshFunc(promptList.Refresh)

	addButton := widget.NewButton("Add Prompt", func() {
		bp.showPromptDialog(sm, nil, promptList)
	})

	header := container.NewVBox()
	header.Add(sm.CreateSettingTitleLabel("Prompt Library"))
	header.Add(sm.CreateSettingDescriptionLabel("Manage the instructions sent with each image. The active prompt is applied to every image of a run."))
	header.Add(addButton)
	return container.NewBorder(header, nil, nil, nil, promptList)
}

// CreatePrefsPanel creates a preferences widget for batch settings
func (bp *Plugin) CreatePrefsPanel(sm setting.SettingsManager) *fyne.Container {
	// --- General Settings Container ---
	generalContainer := container.NewVBox()

	// Gemini API Key
	aiStudioURL, _ := url.Parse("https://aistudio.google.com/apikey")
	apiKeyConfig := setting.TextEntrySettingConfig{
		Name:          "geminiAPIKey",
		InitialValue:  bp.cfg.GetAPIKey(),
		PlaceHolder:   "Enter your Gemini API key",
		Label:         sm.CreateSettingTitleLabel("Gemini API Key:"),
		HelpContent:   widget.NewHyperlink("A Gemini API key is required. Get one here.", aiStudioURL),
		Validator:     validation.NewRegexp(GeminiAPIKeyRegexp, "Gemini API keys start with AIza and are 39 characters long"),
		DisplayStatus: true,
	}
	apiKeyConfig.ApplyFunc = func(s string) {
		bp.cfg.SetAPIKey(s)           // The key goes to the system keyring, not to preferences
		apiKeyConfig.InitialValue = s // Update the initial value with the new API key
	}
	sm.CreateTextEntrySetting(&apiKeyConfig, generalContainer)

	// API Tier
	tierConfig := setting.SelectConfig{
		Name:         "apiTier",
		Options:      setting.StringOptions(GetAPITiers()),
		InitialValue: int(bp.cfg.GetAPITier()),
		Label:        sm.CreateSettingTitleLabel("Gemini API Tier:"),
		HelpContent:  sm.CreateSettingDescriptionLabel("Your Gemini billing tier determines how fast requests may be sent. Pick the tier of your API key to avoid rate limit errors."),
	}
	tierConfig.ApplyFunc = func(val interface{}) {
		selectedTier := APITier(val.(int))
		bp.cfg.SetAPITier(selectedTier)
		tierConfig.InitialValue = int(selectedTier)
	}
	sm.CreateSelectSetting(&tierConfig, generalContainer)

	// Max Upload Size
	uploadSizeConfig := setting.SelectConfig{
		Name:         "maxUploadSize",
		Options:      setting.StringOptions(GetMaxUploadSizes()),
		InitialValue: int(bp.cfg.GetMaxUploadSize()),
		Label:        sm.CreateSettingTitleLabel("Max Upload Size:"),
		HelpContent:  sm.CreateSettingDescriptionLabel("Images larger than this on their longest edge are downscaled before upload. Smaller uploads are faster and cheaper but lose detail."),
	}
	uploadSizeConfig.ApplyFunc = func(val interface{}) {
		selectedSize := MaxUploadSize(val.(int))
		bp.cfg.SetMaxUploadSize(selectedSize)
		uploadSizeConfig.InitialValue = int(selectedSize)
	}
	sm.CreateSelectSetting(&uploadSizeConfig, generalContainer)

	// Model
	modelConfig := setting.TextEntrySettingConfig{
		Name:         "geminiModel",
		InitialValue: bp.cfg.GetModel(),
		PlaceHolder:  gemini.DefaultModel,
		Label:        sm.CreateSettingTitleLabel("Model:"),
		HelpContent:  sm.CreateSettingDescriptionLabel("The Gemini model used for retouching. Leave the default unless you need a specific image-capable model."),
	}
	modelConfig.ApplyFunc = func(s string) {
		bp.cfg.SetModel(s)
		modelConfig.InitialValue = s
	}
	sm.CreateTextEntrySetting(&modelConfig, generalContainer)

	// Auto Retry
	autoRetryConfig := setting.BoolConfig{
		Name:         "autoRetry",
		InitialValue: bp.cfg.GetAutoRetry(),
		Label:        sm.CreateSettingTitleLabel("Retry rate limited requests:"),
		HelpContent:  sm.CreateSettingDescriptionLabel("When the API throttles a request, wait and try the image again before marking it failed."),
	}
	autoRetryConfig.ApplyFunc = func(b bool) {
		bp.cfg.SetAutoRetry(b)
		autoRetryConfig.InitialValue = b
	}
	sm.CreateBoolSetting(&autoRetryConfig, generalContainer)

	// Skip Existing
	skipExistingConfig := setting.BoolConfig{
		Name:         "skipExisting",
		InitialValue: bp.cfg.GetSkipExisting(),
		Label:        sm.CreateSettingTitleLabel("Skip already retouched images:"),
		HelpContent:  sm.CreateSettingDescriptionLabel("Images whose output file already exists are skipped, so an interrupted batch can be resumed by running it again."),
	}
	skipExistingConfig.ApplyFunc = func(b bool) {
		bp.cfg.SetSkipExisting(b)
		skipExistingConfig.InitialValue = b
	}
	sm.CreateBoolSetting(&skipExistingConfig, generalContainer)

	// Optimize Prompt
	optimizePromptConfig := setting.BoolConfig{
		Name:         "optimizePrompt",
		InitialValue: bp.cfg.GetOptimizePrompt(),
		Label:        sm.CreateSettingTitleLabel("Optimize prompts:"),
		HelpContent:  sm.CreateSettingDescriptionLabel("Tidy up the prompt before sending: collapse whitespace, cap the length and end with punctuation."),
	}
	optimizePromptConfig.ApplyFunc = func(b bool) {
		bp.cfg.SetOptimizePrompt(b)
		optimizePromptConfig.InitialValue = b
	}
	sm.CreateBoolSetting(&optimizePromptConfig, generalContainer)

	// Clear Run History
	resetButtonConfig := setting.ButtonWithConfirmationConfig{
		Label:          sm.CreateSettingTitleLabel("Run History:"),
		HelpContent:    sm.CreateSettingDescriptionLabel("Clear the finished run from the main view and its saved summary."),
		ButtonText:     "Clear",
		ConfirmTitle:   "Please Confirm",
		ConfirmMessage: "This cannot be undone. Are you sure?",
		OnPressed: func() {
			if err := bp.store.Reset(); err != nil {
				log.Printf("Failed to reset run history: %v", err)
			}
		},
	}
	sm.CreateButtonWithConfirmationSetting(&resetButtonConfig, generalContainer)

	// --- Tabs ---
	// The prompt library holds a list that needs the full panel height, so the
	// two sections live in tabs rather than stacked containers.
	generalScroll := container.NewVScroll(generalContainer)
	promptContainer := bp.createPromptPanel(sm)

	tabs := container.NewAppTabs(
		container.NewTabItem("General", generalScroll),
		container.NewTabItem("Prompt Library", promptContainer),
	)

	return container.NewStack(tabs)
}
