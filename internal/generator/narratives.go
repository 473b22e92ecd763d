// Package generator – promo narratives
//
// Relying on the text model's own randomness produced near-identical promo
// captions, so the narrative is drawn here, before the provider is called,
// from a fixed pool of twelve angles with a dedicated prompt per language.
package generator

import (
	"fmt"
	"math/rand"

	"golang.org/x/text/language"
)

// narrative identifies one promo angle.
type narrative string

const (
	narrativeTradingStats   narrative = "TRADING_STATS"
	narrativeLockedSupply   narrative = "LOCKED_SUPPLY"
	narrativeMiniApp        narrative = "MINI_APP"
	narrativeAIAgent        narrative = "AI_AGENT"
	narrativeAIPodcast      narrative = "AI_PODCAST"
	narrativeAmbassador     narrative = "AMBASSADOR"
	narrativeKOLTraction    narrative = "KOL_TRACTION"
	narrativePepeSimilarity narrative = "PEPE_SIMILARITY"
	narrativeTONTrend       narrative = "TON_TREND"
	narrativeBibleVibe      narrative = "BIBLE_VIBE"
	narrativeRoadmap        narrative = "ROADMAP"
	narrativeMemeCulture    narrative = "MEME_CULTURE"
)

var narratives = []narrative{
	narrativeTradingStats, narrativeLockedSupply, narrativeMiniApp,
	narrativeAIAgent, narrativeAIPodcast, narrativeAmbassador,
	narrativeKOLTraction, narrativePepeSimilarity, narrativeTONTrend,
	narrativeBibleVibe, narrativeRoadmap, narrativeMemeCulture,
}

// narrativePrompts holds the per-language instruction for each angle.
var narrativePrompts = map[language.Tag]map[narrative]string{
	language.English: {
		narrativeTradingStats:   `Create a convincing promo tweet about $PEPE.MP3 trading statistics in English. Use facts: $830K total trading volume, 5,189 transactions, $220K ATH market cap, 260 diamond holders, $236 average investment per holder. Style: confident with concrete numbers, trust-building.`,
		narrativeLockedSupply:   `Create a promo tweet about $PEPE.MP3 token locking strategy in English. Use facts: 25% of total supply locked for 20 months, team bought 50% of tokens for $20K after fair launch, long-term development strategy. Style: reliability, stability, team trust.`,
		narrativeMiniApp:        `Create a fun promo tweet about $PEPE.MP3 Telegram Mini App in English. Use features: voice pranks for friends, voice encryption into "frog language", decoding with tokens, viral referral system. Style: playful, interactive, youthful.`,
		narrativeAIAgent:        `Create a promo tweet about $PEPE.MP3 Voice AI Agent in English. Use facts: tested 499 times, 360 minutes of user conversations, trained on "Bible of Vibe" philosophy, provides emotional support. Style: innovative, soulful, tech-forward.`,
		narrativeAIPodcast:      `Create a futuristic promo tweet about planned $PEPE.MP3 AI Podcast in English. Use concept: two AI agents conducting dialogues, first podcast where artificial intelligence discusses Web3, innovative future media format. Style: cutting-edge, experimental.`,
		narrativeAmbassador:     `Create an engaging promo tweet about $PEPE.MP3 ambassador program in English. Use facts: 15 active ambassadors, 90 completed tasks, community rewards, open program enrollment. Style: community-focused, participation, opportunities.`,
		narrativeKOLTraction:    `Create a promo tweet about $PEPE.MP3 media influence in English. Use data: 28% followers are verified influencers, 2.41M audience reach, 50K views on X, mentions from key opinion leaders. Style: influential, growth, recognition.`,
		narrativePepeSimilarity: `Create a promo tweet about $PEPE.MP3 following original $PEPE success in English. Use idea: follows $PEPE on Ethereum success pattern, strong meme narrative, proven success formula, history repeating on TON. Style: legacy, growth potential.`,
		narrativeTONTrend:       `Create a trending promo tweet about $PEPE.MP3 positioning in TON ecosystem in English. Use facts: 900M TON users, rapidly growing meme ecosystem, meme cap approaching 100B, perfect entry timing. Style: trendy, opportunities, market growth.`,
		narrativeBibleVibe:      `Create a philosophical promo tweet about $PEPE.MP3 values in English. Use concept: "Bible of Vibe" as foundational project philosophy, culture of support and positivity, community values, right vibe. Style: inspiring, value-driven, philosophical.`,
		narrativeRoadmap:        `Create an ambitious promo tweet about $PEPE.MP3 development plans in English. Use plans: complete ecosystem of Mini App, AI Agent and Podcast, future partnerships and collaborations, innovative product development. Style: forward-looking, ambitious, development-focused.`,
		narrativeMemeCulture:    `Create a meme promo tweet about $PEPE.MP3 culture in English. Use ideas: audio memes as new trend, frog culture in Web3, voice memes, humor and entertainment in crypto space. Style: fun, meme-worthy, trendy.`,
	},
	language.Russian: {
		narrativeTradingStats:   `Создай продающий промо-твит о торговой статистике $PEPE.MP3 на русском языке. Используй факты: $830K общий объём торгов, 5,189 транзакций, $220K исторический максимум капитализации, 260 diamond holders, $236 средняя инвестиция на холдера. Стиль: уверенный, с конкретными цифрами, вызывающий доверие.`,
		narrativeLockedSupply:   `Создай промо-твит о стратегии блокировки токенов $PEPE.MP3 на русском языке. Используй факты: 25% от общего количества заблокировано на 20 месяцев, команда выкупила 50% токенов за $20K после честного запуска, долгосрочная стратегия развития. Стиль: надёжность, стабильность, доверие к команде.`,
		narrativeMiniApp:        `Создай весёлый промо-твит о Telegram Mini App $PEPE.MP3 на русском языке. Используй фичи: голосовые пранки друзей, шифрование голоса в "язык лягушек", декодирование за токены, вирусная реферальная система. Стиль: игривый, интерактивный, молодёжный.`,
		narrativeAIAgent:        `Создай промо-твит о Voice AI Agent $PEPE.MP3 на русском языке. Используй факты: протестирован 499 раз, 360 минут общения с пользователями, обучен на философии "Bible of Vibe", даёт эмоциональную поддержку. Стиль: инновационный, душевный, технологичный.`,
		narrativeAIPodcast:      `Создай футуристичный промо-твит о планируемом AI Podcast $PEPE.MP3 на русском языке. Используй концепцию: два AI агента ведут диалоги, первый подкаст где искусственный интеллект обсуждает Web3, инновационный медиа-формат будущего. Стиль: передовой, экспериментальный.`,
		narrativeAmbassador:     `Создай вовлекающий промо-твит о программе амбассадоров $PEPE.MP3 на русском языке. Используй факты: 15 активных амбассадоров, 90 выполненных заданий, награды для участников сообщества, открытый набор в программу. Стиль: сообщество, участие, возможности.`,
		narrativeKOLTraction:    `Создай промо-твит о медийном влиянии $PEPE.MP3 на русском языке. Используй данные: 28% подписчиков - верифицированные инфлюенсеры, охват аудитории 2.41M человек, 50K просмотров в X, упоминания от ключевых лидеров мнений. Стиль: влиятельность, рост, признание.`,
		narrativePepeSimilarity: `Создай промо-твит о преемственности $PEPE.MP3 с оригинальным $PEPE на русском языке. Используй идею: повторяет паттерн успеха $PEPE на Ethereum, сильный мемный нарратив, проверенная формула успеха, история повторяется на TON. Стиль: преемственность, потенциал роста.`,
		narrativeTONTrend:       `Создай трендовый промо-твит о позиционировании $PEPE.MP3 в экосистеме TON на русском языке. Используй факты: 900M пользователей TON, быстрорастущая мем-экосистема, мем-капитализация стремится к 100B, идеальный тайминг для входа. Стиль: трендовость, возможности, рост рынка.`,
		narrativeBibleVibe:      `Создай философский промо-твит о ценностях $PEPE.MP3 на русском языке. Используй концепцию: "Bible of Vibe" как основополагающая философия проекта, культура поддержки и позитива, ценности сообщества, правильный вайб. Стиль: вдохновляющий, ценностный, философский.`,
		narrativeRoadmap:        `Создай амбициозный промо-твит о планах развития $PEPE.MP3 на русском языке. Используй планы: полная экосистема из Mini App, AI Agent и Podcast, будущие партнёрства и коллаборации, инновационное развитие продуктов. Стиль: перспективный, амбициозный, развитие.`,
		narrativeMemeCulture:    `Создай мемный промо-твит о культуре $PEPE.MP3 на русском языке. Используй идеи: аудио-мемы как новый тренд, культура лягушек в Web3, голосовые мемы, юмор и развлечения в криптопространстве. Стиль: весёлый, мемный, трендовый.`,
	},
}

// captionRequirements is appended to every narrative prompt.
const captionRequirements = `

ТРЕБОВАНИЯ:
- Максимум 240 символов (оставляем место для ссылок)
- Используй эмодзи и хештеги (#TON #PepeMP3 #MemeCoin)
- Добавь призыв к действию БЕЗ конкретных ссылок
- НЕ добавляй ссылки типа [ССЫЛКА], [СЮДА ССЫЛКУ] или подобные
- НЕ объясняй процесс, выдай только готовый твит
- Стиль: Web3 маркетинг, мемный но профессиональный
- Язык: %s
- Естественность: звучи как нативный спикер, избегай переводных конструкций`

// captionPrompt assembles the full text-model prompt for a random narrative.
func captionPrompt(rng *rand.Rand, lang language.Tag) string {
	prompts, ok := narrativePrompts[lang]
	if !ok {
		prompts = narrativePrompts[language.English]
	}
	langName := "английский"
	if lang == language.Russian {
		langName = "русский"
	}
	n := narratives[rng.Intn(len(narratives))]
	return prompts[n] + fmt.Sprintf(captionRequirements, langName)
}
