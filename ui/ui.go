package ui

import (
	"fmt"
	"image"
	"image/color"
	"net/url"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dixieflatline76/Retouch/asset"
	"github.com/dixieflatline76/Retouch/config"
	"github.com/dixieflatline76/Retouch/pkg/hotkey"
	"github.com/dixieflatline76/Retouch/pkg/ui"
	"github.com/dixieflatline76/Retouch/pkg/ui/setting"
	"github.com/dixieflatline76/Retouch/util"
	"github.com/dixieflatline76/Retouch/util/log"
)

// OS abstracts platform specific application chrome, like the macOS Dock
// activation policy.
type OS interface {
	TransformToForeground()
	TransformToBackground()
	SetupLifecycle(app fyne.App, ra *RetouchApp)
}

// RetouchApp owns the Fyne application, the tray menu and the top level
// windows, and acts as the plugin manager.
type RetouchApp struct {
	app      fyne.App
	assetMgr *asset.Manager
	appCfg   *config.AppConfig
	os       OS

	plugins   []ui.Plugin
	notifiers []ui.Notifier

	trayMenu   *fyne.Menu
	mainWindow fyne.Window

	prefsWindow fyne.Window
	winMutex    sync.Mutex

	lastOfferedVersion string
}

var (
	instance *RetouchApp // Singleton instance of the application
	once     sync.Once   // Ensures the singleton is created only once
)

// GetInstance returns the singleton instance of the application. It returns
// nil on platforms without a system tray.
func GetInstance() *RetouchApp {
	once.Do(func() {
		a := app.NewWithID(config.AppID)
		if _, ok := a.(desktop.App); !ok {
			log.Println("Tray icon not supported on this platform")
			return
		}
		instance = &RetouchApp{
			app:      a,
			assetMgr: asset.NewManager(),
			appCfg:   config.NewAppConfig(a.Preferences()),
			os:       getOS(),
		}
	})
	return instance
}

// Register initializes a plugin and adds it to the application.
func (ra *RetouchApp) Register(p ui.Plugin) {
	p.Init(ra)
	ra.plugins = append(ra.plugins, p)
}

// Deregister removes a plugin from the application.
func (ra *RetouchApp) Deregister(p ui.Plugin) {
	for i, registered := range ra.plugins {
		if registered == p {
			ra.plugins = append(ra.plugins[:i], ra.plugins[i+1:]...)
			return
		}
	}
}

// Start builds the application chrome, activates the registered plugins and
// runs the main loop. It blocks until the application quits. The main window
// is built before activation so plugins have a parent for startup dialogs.
func (ra *RetouchApp) Start() {
	ra.buildMainWindow()
	for _, p := range ra.plugins {
		p.Activate()
	}

	ra.CreateTrayMenu()
	ra.os.SetupLifecycle(ra.app, ra)
	ra.verifyTerms()

	hotkey.StartListeners()
	if ra.appCfg.GetUpdateCheckEnabled() {
		go ra.watchForUpdates()
	}

	ra.app.Run()
}

// Lifecycle returns the application lifecycle.
func (ra *RetouchApp) Lifecycle() fyne.Lifecycle {
	return ra.app.Lifecycle()
}

// quit deactivates all plugins, giving in-flight work a chance to wind
// down, then exits the main loop.
func (ra *RetouchApp) quit() {
	for _, p := range ra.plugins {
		p.Deactivate()
	}
	ra.app.Quit()
}

// CreateTrayMenu creates the tray menu for the application. Plugins
// contribute their own menu items between the standard entries.
func (ra *RetouchApp) CreateTrayMenu() {
	desk := ra.app.(desktop.App)
	trayIcon, _ := ra.assetMgr.GetIcon("tray.png")

	items := []*fyne.MenuItem{
		ra.CreateMenuItem(fmt.Sprintf("Show %s", config.AppName), func() {
			ra.ShowMainWindow()
		}, "open.png"),
		fyne.NewMenuItemSeparator(),
	}

	for _, p := range ra.plugins {
		items = append(items, p.CreateTrayMenuItems()...)
	}

	items = append(items,
		fyne.NewMenuItemSeparator(),
		ra.CreateToggleMenuItem("Notifications", func(enabled bool) {
			ra.appCfg.SetAppNotificationsEnabled(enabled)
		}, "", ra.appCfg.GetAppNotificationsEnabled()),
		ra.CreateMenuItem("Preferences", func() {
			ra.CreatePreferencesWindow()
		}, "settings.png"),
		ra.CreateMenuItem(fmt.Sprintf("About %s", config.AppName), func() {
			ra.CreateSplashScreen(aboutSplashTime)
		}, "about.png"),
		fyne.NewMenuItemSeparator(),
		ra.CreateMenuItem("Quit", func() {
			ra.quit()
		}, "quit.png"),
	)

	trayMenu := fyne.NewMenu(config.AppName, items...)
	desk.SetSystemTrayMenu(trayMenu)
	desk.SetSystemTrayIcon(trayIcon)
	ra.app.SetIcon(trayIcon)
	ra.trayMenu = trayMenu
}

// CreateMenuItem creates a tray menu item with an icon from the asset
// manager.
func (ra *RetouchApp) CreateMenuItem(label string, action func(), iconName string) *fyne.MenuItem {
	mi := fyne.NewMenuItem(label, action)
	icon, err := ra.assetMgr.GetIcon(iconName)
	if err != nil {
		log.Printf("Failed to load icon: %v", err)
		return mi
	}
	mi.Icon = icon
	return mi
}

// CreateToggleMenuItem creates a checkable tray menu item that flips its
// state on every activation.
func (ra *RetouchApp) CreateToggleMenuItem(label string, action func(bool), iconName string, checked bool) *fyne.MenuItem {
	var mi *fyne.MenuItem
	mi = fyne.NewMenuItem(label, func() {
		mi.Checked = !mi.Checked
		action(mi.Checked)
		ra.RefreshTrayMenu()
	})
	mi.Checked = checked
	if iconName != "" {
		if icon, err := ra.assetMgr.GetIcon(iconName); err == nil {
			mi.Icon = icon
		}
	}
	return mi
}

// RefreshTrayMenu redraws the tray menu after item state changes. Call from
// the UI thread.
func (ra *RetouchApp) RefreshTrayMenu() {
	if ra.trayMenu != nil {
		ra.trayMenu.Refresh()
	}
}

// NotifyUser sends a system notification, honoring the notification
// preference, and fans the message out to registered notifiers.
func (ra *RetouchApp) NotifyUser(title, message string) {
	if ra.appCfg.GetAppNotificationsEnabled() {
		ra.app.SendNotification(fyne.NewNotification(title, message))
	}
	for _, notify := range ra.notifiers {
		notify(title, message)
	}
}

// RegisterNotifier adds a callback that receives every user notification.
func (ra *RetouchApp) RegisterNotifier(n ui.Notifier) {
	ra.notifiers = append(ra.notifiers, n)
}

// OpenURL opens the given URL in the system browser.
func (ra *RetouchApp) OpenURL(u *url.URL) error {
	return ra.app.OpenURL(u)
}

// GetPreferences returns the application preferences.
func (ra *RetouchApp) GetPreferences() fyne.Preferences {
	return ra.app.Preferences()
}

// GetAssetManager returns the embedded asset manager.
func (ra *RetouchApp) GetAssetManager() *asset.Manager {
	return ra.assetMgr
}

// buildMainWindow creates the hidden main window up front so dialogs always
// have a parent. It is shown on demand from the tray or a hotkey.
func (ra *RetouchApp) buildMainWindow() {
	win := ra.app.NewWindow(config.AppName)
	win.Resize(fyne.NewSize(900, 600))
	win.CenterOnScreen()
	win.SetCloseIntercept(func() {
		win.Hide()
		ra.os.TransformToBackground()
	})

	var content fyne.CanvasObject
	if len(ra.plugins) == 1 {
		content = ra.plugins[0].CreateMainContent(win)
	} else {
		tabs := container.NewAppTabs()
		for _, p := range ra.plugins {
			tabs.Append(container.NewTabItem(p.Name(), p.CreateMainContent(win)))
		}
		content = tabs
	}
	win.SetContent(content)
	ra.mainWindow = win
}

// ShowMainWindow brings the main window to the front. Safe to call from any
// goroutine, hotkey listeners included.
func (ra *RetouchApp) ShowMainWindow() {
	if ra.mainWindow == nil {
		return
	}
	fyne.Do(func() {
		ra.os.TransformToForeground()
		ra.mainWindow.Show()
		ra.mainWindow.RequestFocus()
	})
}

// addVersionWatermark adds a version watermark to the given image.
func (ra *RetouchApp) addVersionWatermark(img image.Image) (image.Image, error) {
	versionString := fmt.Sprintf("Version: %s", config.AppVersion)

	// Draw the label onto a transparent overlay the same size as the image
	watermark := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.Transparent)
	col := color.RGBA{40, 40, 40, 200}

	// Right-align the text with a small margin
	bounds, _ := font.BoundString(basicfont.Face7x13, versionString)
	textWidth := bounds.Max.X.Ceil()

	point := fixed.Point26_6{
		X: fixed.Int26_6((img.Bounds().Dx() - textWidth - 10) * 64),
		Y: fixed.Int26_6((img.Bounds().Dy() - 10) * 64),
	}

	d := &font.Drawer{
		Dst:  watermark,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(versionString)

	dst := imaging.Overlay(img, watermark, image.Pt(0, 0), 1)
	return dst, nil
}

// CreateSplashScreen shows the splash screen for the given number of
// seconds. It doubles as the About panel.
func (ra *RetouchApp) CreateSplashScreen(seconds int) {
	drv, ok := ra.app.Driver().(desktop.Driver)
	if !ok {
		log.Println("Splash screen not supported")
		return
	}

	splashWindow := drv.CreateSplashWindow()

	splashImg, err := ra.assetMgr.GetImage("splash.png")
	if err != nil {
		log.Printf("Failed to load splash image: %v", err)
		return
	}

	watermarked, err := ra.addVersionWatermark(splashImg)
	if err == nil {
		splashImg = watermarked
	}

	img := canvas.NewImageFromImage(splashImg)
	img.FillMode = canvas.ImageFillOriginal

	splashWindow.SetContent(img)
	splashWindow.Resize(fyne.NewSize(300, 300))
	splashWindow.CenterOnScreen()
	splashWindow.Show()

	go func() {
		time.Sleep(time.Duration(seconds) * time.Second)
		fyne.Do(splashWindow.Close)
	}()
}

// CreatePreferencesWindow creates and displays the preferences window. Only
// one preferences window exists at a time; repeated calls focus it.
func (ra *RetouchApp) CreatePreferencesWindow() {
	ra.winMutex.Lock()
	defer ra.winMutex.Unlock()

	if ra.prefsWindow != nil {
		ra.prefsWindow.Show()
		ra.prefsWindow.RequestFocus()
		return
	}

	prefsWindow := ra.app.NewWindow(fmt.Sprintf("%s Preferences", config.AppName))
	prefsWindow.Resize(fyne.NewSize(800, 800))
	prefsWindow.CenterOnScreen()

	sm := NewSettingsManager(prefsWindow)

	var pluginPanel fyne.CanvasObject
	if len(ra.plugins) == 1 {
		pluginPanel = ra.plugins[0].CreatePrefsPanel(sm)
	} else {
		tabs := container.NewAppTabs()
		for _, p := range ra.plugins {
			tabs.Append(container.NewTabItem(p.Name(), p.CreatePrefsPanel(sm)))
		}
		pluginPanel = tabs
	}

	appSection := ra.createAppSettingsSection(sm)

	closeButton := widget.NewButton("Close", func() {
		prefsWindow.Close()
	})
	buttonRow := container.NewHBox(layout.NewSpacer(), sm.GetApplySettingsButton(), closeButton)

	prefsWindow.SetContent(container.NewBorder(nil, container.NewVBox(appSection, buttonRow), nil, nil, pluginPanel))
	prefsWindow.SetOnClosed(func() {
		ra.winMutex.Lock()
		ra.prefsWindow = nil
		ra.winMutex.Unlock()
	})

	ra.prefsWindow = prefsWindow
	prefsWindow.Show()
}

// createAppSettingsSection builds the application-wide settings block shown
// below the plugin panels.
func (ra *RetouchApp) createAppSettingsSection(sm setting.SettingsManager) *fyne.Container {
	section := container.NewVBox()
	section.Add(widget.NewSeparator())
	section.Add(sm.CreateSectionTitleLabel("Application"))

	updateCfg := &setting.BoolConfig{
		Name:         "Update Check",
		InitialValue: ra.appCfg.GetUpdateCheckEnabled(),
		Label:        sm.CreateSettingTitleLabel("Check for Updates:"),
		HelpContent:  sm.CreateSettingDescriptionLabel("Look for new releases on startup and once a day after."),
		ApplyFunc: func(enabled bool) {
			ra.appCfg.SetUpdateCheckEnabled(enabled)
		},
	}
	sm.CreateBoolSetting(updateCfg, section)

	monitorCfg := &setting.BoolConfig{
		Name:         "Monitor API",
		InitialValue: ra.appCfg.GetMonitorAPIEnabled(),
		Label:        sm.CreateSettingTitleLabel("Local Monitor API:"),
		HelpContent:  sm.CreateSettingDescriptionLabel("Serve batch run status on 127.0.0.1:49453 for dashboards and scripts. Takes effect after a restart."),
		ApplyFunc: func(enabled bool) {
			ra.appCfg.SetMonitorAPIEnabled(enabled)
		},
	}
	sm.CreateBoolSetting(monitorCfg, section)

	return section
}

// verifyTerms checks whether the Terms of Use have been accepted before
// letting the application settle into the tray. Declining quits.
func (ra *RetouchApp) verifyTerms() {
	if util.HasAcceptedTerms() {
		ra.CreateSplashScreen(startupSplashTime)
	} else {
		ra.displayTermsAcceptance()
	}
}

// displayTermsAcceptance shows the Terms of Use and prompts the user to
// accept them.
func (ra *RetouchApp) displayTermsAcceptance() {
	termsText, err := ra.assetMgr.GetText("terms.txt")
	if err != nil {
		log.Fatalf("Error loading Terms of Use: %v", err)
	}

	termsWindow := ra.app.NewWindow(fmt.Sprintf("%s Terms of Use", config.AppName))
	termsWindow.Resize(fyne.NewSize(800, 600))
	termsWindow.CenterOnScreen()
	termsWindow.SetCloseIntercept(func() {
		// Acceptance is decided through the dialog buttons
	})

	termsWidget := widget.NewRichTextWithText(termsText)
	termsWidget.Wrapping = fyne.TextWrapWord
	termsScroll := container.NewVScroll(termsWidget)
	termsDialog := dialog.NewCustomConfirm(
		fmt.Sprintf("To continue using %s, please review and accept the Terms of Use.", config.AppName),
		"Accept", "Decline", termsScroll, func(accepted bool) {
			if accepted {
				util.MarkTermsAccepted()
				termsWindow.Close()
				ra.CreateSplashScreen(startupSplashTime)
			} else {
				ra.quit()
			}
		}, termsWindow)

	termsDialog.Resize(fyne.NewSize(795, 595))
	termsDialog.Show()
	termsWindow.Show()
}

// watchForUpdates checks for a newer release at startup and then once a
// day, surfacing any hit as a notification plus a tray menu entry.
func (ra *RetouchApp) watchForUpdates() {
	ra.checkForUpdates()

	ticker := time.NewTicker(updateCheckInterval)
	defer ticker.Stop()
	for range ticker.C {
		if !ra.appCfg.GetUpdateCheckEnabled() {
			continue
		}
		ra.checkForUpdates()
	}
}

func (ra *RetouchApp) checkForUpdates() {
	result, err := util.CheckForUpdates(nil)
	if err != nil {
		log.Printf("Update check failed: %v", err)
		return
	}
	if !result.UpdateAvailable || result.LatestVersion == ra.lastOfferedVersion {
		return
	}
	ra.lastOfferedVersion = result.LatestVersion

	releaseURL, err := url.Parse(result.ReleaseURL)
	if err != nil {
		log.Printf("Update check returned an invalid release URL: %v", err)
		return
	}

	ra.NotifyUser("Update Available", fmt.Sprintf("%s %s is ready to download.", config.AppName, result.LatestVersion))

	item := ra.CreateMenuItem(updateMenuItemPrefix+result.LatestVersion, func() {
		if err := ra.OpenURL(releaseURL); err != nil {
			log.Printf("Failed to open release page: %v", err)
		}
	}, "update.png")

	fyne.Do(func() {
		ra.trayMenu.Items = append([]*fyne.MenuItem{item, fyne.NewMenuItemSeparator()}, ra.trayMenu.Items...)
		ra.RefreshTrayMenu()
	})
}
