package bot

// Тексты сообщений бота. Форматирование — HTML (parse_mode=HTML).
const (
	msgGreeting = "🌟 <b>УЗНАЙ, ЧТО ЖДЁТ ТЕБЯ ЧЕРЕЗ 5 ЛЕТ!</b> 🌟\n\n" +
		"Я помогу тебе заглянуть в будущее с помощью ИИ! Ответь на несколько вопросов о себе, и я создам подробный прогноз твоей жизни на 5 лет вперёд. Это займёт всего пару минут! 😊\n\n" +
		"Чтобы начать, просто заполни анкету ниже 👇"

	msgQuestionnaire = "📝 <b>Давай познакомимся поближе!</b>\n\n" +
		"Чтобы я мог сделать точный прогноз твоей жизни через 5 лет, мне нужно узнать о тебе немного больше. Скопируй это сообщение, заполни поля и отправь его мне обратно. Это просто! 😊\n\n" +
		"1. Нажми на это сообщение и выбери \"Копировать\".\n" +
		"2. Вставь его в поле ввода (долгое нажатие → \"Вставить\").\n" +
		"3. Заполни свои ответы после каждого пункта.\n" +
		"4. Отправь мне сообщение!\n\n" +
		"Вот анкета:\n\n" +
		"<i>Мой возраст: (например, 25)</i>\n" +
		"<i>Страна, где я живу: (например, Россия)</i>\n" +
		"<i>Семейное положение: (например, не женат/замужем)</i>\n" +
		"<i>Мои 3-5 главных интересов: (например, путешествия, книги, спорт)</i>\n" +
		"<i>Как я зарабатываю на жизнь: (например, работаю программистом)</i>\n" +
		"<i>Как я забочусь о своём здоровье: (например, хожу в спортзал 2 раза в неделю)</i>\n" +
		"<i>Моя рутина в жизни: (например, встаю в 7 утра, работаю до 18:00, вечером читаю)</i>\n" +
		"<i>Моя самая большая мечта: (например, объездить весь мир)</i>\n\n" +
		"<b>На основе этих данных я создам детальное описание твоей жизни через 5 лет!</b>"

	msgAnalyzing = "🧠 Анализирую твою жизнь... Это займёт всего несколько секунд! ⏳"

	msgPredictionHeader = "<b>🔮 Твой прогноз на 5 лет вперёд:</b>\n\n" +
		"Вот что ждёт тебя, если ты продолжишь идти текущим путём:\n\n"

	msgUnlockOffer = "Хочешь узнать, что произойдёт, если ты не изменишь свой текущий путь? Я расскажу тебе о 3 ключевых событиях, которые могут случиться в твоей жизни через 5 лет, если всё останется как есть."

	msgPayExplainer = "Чтобы узнать 3 ключевых события, которые ждут тебя через 5 лет, если ты не изменишь свой путь, нужно оплатить 1 звезду ⭐. Это валюта Telegram, которую ты можешь купить прямо здесь. Готов?"

	msgPaymentSuccess = "💫 Покупка успешна! Генерирую твои 3 ключевых события... ⏳"

	msgFutureHeader = "<b>Вот что может произойти, если ты не изменишь свой путь:</b>\n\n"

	msgTryAnother = "Если хочешь попробовать другой сценарий, заполни анкету заново с помощью /start! 😊"

	msgAlreadyProcessed = "Этот запрос уже обрабатывается, подожди немного ⏳"

	msgNoQuestionnaire = "Сначала заполни анкету! 😊\n" +
		"Отправь /start, чтобы начать заново и заполнить анкету."

	msgNotRecognized = "Кажется, ты отправил что-то не то. 😅 Чтобы я мог сделать прогноз, пожалуйста, заполни анкету. Скопируй её, заполни свои данные и отправь мне обратно. Нажми /start, чтобы получить анкету снова!"

	msgGenerationError = "Произошла ошибка при генерации прогноза. Пожалуйста, попробуй снова."

	msgFutureError = "Произошла ошибка при генерации событий. Пожалуйста, попробуй снова."

	msgInvoiceError = "Произошла ошибка при создании счёта. Попробуй снова позже."

	msgPaymentUnknown = "Произошла ошибка при обработке оплаты. Попробуй снова позже."

	msgShareFooter = "\n\n✨ Понравился прогноз? Поделись ботом с друзьями — пусть тоже заглянут в своё будущее!"
)

// Кнопки inline-клавиатуры и их callback-данные.
const (
	btnUnlockText = "Узнать 3 события за 1 звезду ⭐"
	btnShareText  = "Поделиться прогнозом 📤"
	btnRetryText  = "Попробовать заново 🔄"

	actionLearnScenarios  = "learn_scenarios"
	actionSharePrediction = "share_prediction"
	actionTryAgain        = "try_again"
)

// Параметры счета на оплату (Telegram Stars).
const (
	invoiceTitle       = "3 события в будущем"
	invoiceDescription = "Узнай, что произойдёт, если не изменишь сценарий."
	invoicePayload     = "buy_3_events"
	invoiceCurrency    = "XTR"
	invoiceAmount      = 1
)

// Маркеры заполненной анкеты: сообщение принимается как анкета, если
// содержит обе подстроки (в любом месте, с учётом регистра).
const (
	formMarkerAge     = "Мой возраст"
	formMarkerCountry = "Страна, где я живу"
)

// secretPurchasePhrase — секретная фраза для тестовой покупки без оплаты.
const secretPurchasePhrase = "секретнаяпокупка123"
